package doctor

import (
	"context"
	"fmt"

	"github.com/colonyops/scribe/internal/core/script"
)

// HistoryStore is the part of script.Service the history check uses.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]script.Script, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// HistoryCheck reports scripts kept past the configured history limit,
// typically left over from a larger limit. With autofix it prunes them.
type HistoryCheck struct {
	store   HistoryStore
	max     int
	autofix bool
}

// NewHistoryCheck creates a history check. max of zero means unbounded.
func NewHistoryCheck(store HistoryStore, max int, autofix bool) *HistoryCheck {
	return &HistoryCheck{store: store, max: max, autofix: autofix}
}

func (c *HistoryCheck) Name() string {
	return "History"
}

func (c *HistoryCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	scripts, err := c.store.History(ctx, 0)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "entries",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	count := len(scripts)
	if c.max <= 0 || count <= c.max {
		detail := fmt.Sprintf("%d saved", count)
		if c.max > 0 {
			detail = fmt.Sprintf("%d of %d", count, c.max)
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "entries",
			Status: StatusPass,
			Detail: detail,
		})
		return result
	}

	over := count - c.max
	if !c.autofix {
		result.Items = append(result.Items, CheckItem{
			Label:   "entries",
			Status:  StatusWarn,
			Detail:  fmt.Sprintf("%d script(s) over the limit of %d", over, c.max),
			Fixable: true,
		})
		return result
	}

	removed, err := c.store.Prune(ctx, c.max)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:   "entries",
			Status:  StatusFail,
			Detail:  fmt.Sprintf("prune failed: %v", err),
			Fixable: true,
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "entries",
		Status: StatusPass,
		Detail: fmt.Sprintf("pruned %d script(s)", removed),
	})
	return result
}
