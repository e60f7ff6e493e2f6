package commands

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/scribe/internal/scribe"
	"github.com/colonyops/scribe/internal/tui"
	"github.com/colonyops/scribe/pkg/executil"
)

type TuiCmd struct {
	flags *Flags
	app   *scribe.App

	noMouse bool
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *scribe.App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-mouse",
			Usage:       "disable mouse tracking (toast gestures need the mouse)",
			Sources:     cli.EnvVars("SCRIBE_NO_MOUSE"),
			Destination: &cmd.noMouse,
		},
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	if cmd.noMouse {
		off := false
		cmd.app.Config.TUI.Mouse = &off
	}

	browser := scribe.NewBrowser(&executil.RealExecutor{})

	m := tui.New(ctx, tui.Options{
		Config:  cmd.app.Config,
		Auth:    cmd.app.Auth,
		Scripts: cmd.app.Scripts,
		Toasts:  cmd.app.Toasts,
		OAuth:   cmd.app.OAuth,
		OpenURL: func(url string) error {
			return browser.Open(ctx, url)
		},
		Warnings: cmd.app.Warnings(),
	})

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	if sess, ok := cmd.app.Auth.Session(); ok {
		log.Debug().Str("session_id", sess.ID).Msg("tui closed with an active session")
	}
	return nil
}
