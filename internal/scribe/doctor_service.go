package scribe

import (
	"context"

	"github.com/colonyops/scribe/internal/core/doctor"
)

// DoctorService runs health checks on the scribe setup.
type DoctorService struct {
	app *App
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(app *App) *DoctorService {
	return &DoctorService{app: app}
}

// RunChecks executes all doctor checks and returns results.
func (d *DoctorService) RunChecks(ctx context.Context, configPath string, autofix bool) []doctor.Result {
	cfg := d.app.Config

	checks := []doctor.Check{
		doctor.NewConfigCheck(cfg, configPath),
		doctor.NewLLMCheck(cfg.LLM),
		doctor.NewIdentityCheck(cfg.Identity, d.app.Identity),
		doctor.NewStorageCheck(cfg.DataDir, d.app.DB),
		doctor.NewHistoryCheck(d.app.Scripts, cfg.History.MaxEntries, autofix),
		doctor.NewClipboardCheck(),
	}
	return doctor.RunAll(ctx, checks)
}
