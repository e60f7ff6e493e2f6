package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/scribe/internal/core/config"
)

// Pinger is implemented by identity backends that live in another process.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IdentityCheck verifies the identity backend is reachable.
type IdentityCheck struct {
	cfg      config.IdentityConfig
	provider any
}

// NewIdentityCheck creates an identity check. provider is pinged when it
// implements Pinger.
func NewIdentityCheck(cfg config.IdentityConfig, provider any) *IdentityCheck {
	return &IdentityCheck{cfg: cfg, provider: provider}
}

func (c *IdentityCheck) Name() string {
	return "Identity"
}

func (c *IdentityCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	backend := c.cfg.Backend
	if backend == "" {
		backend = config.BackendMemory
	}

	pinger, ok := c.provider.(Pinger)
	if !ok {
		result.Items = append(result.Items, CheckItem{
			Label:  "backend",
			Status: StatusPass,
			Detail: backend + " (in-process)",
		})
		return result
	}

	if err := pinger.Ping(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "backend",
			Status: StatusFail,
			Detail: fmt.Sprintf("%s unreachable: %v", c.cfg.URL, err),
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "backend",
		Status: StatusPass,
		Detail: backend + " " + c.cfg.URL,
	})
	return result
}
