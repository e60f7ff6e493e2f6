package doctor

import (
	"context"
	"errors"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/scribe/internal/core/config"
)

// ConfigCheck validates the loaded configuration and reports its warnings.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

// NewConfigCheck creates a config check for cfg loaded from path.
func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		result.Items = append(result.Items, CheckItem{
			Label:  "config file",
			Status: StatusPass,
			Detail: "not found, using defaults",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "config file",
			Status: StatusPass,
			Detail: c.path,
		})
	}

	if err := c.cfg.ValidateDeep(c.path); err != nil {
		var fields criterio.FieldErrors
		if errors.As(err, &fields) {
			for _, fe := range fields {
				result.Items = append(result.Items, CheckItem{
					Label:  fe.Field,
					Status: StatusFail,
					Detail: fe.Err.Error(),
				})
			}
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "validation",
				Status: StatusFail,
				Detail: err.Error(),
			})
		}
	}

	for _, w := range c.cfg.Warnings() {
		label := w.Category
		if w.Item != "" {
			label += " " + w.Item
		}
		result.Items = append(result.Items, CheckItem{
			Label:  label,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
