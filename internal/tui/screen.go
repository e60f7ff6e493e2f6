package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/config"
	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/core/toast"
	"github.com/colonyops/scribe/internal/tui/components"
)

// screen is one page of the application. The root model owns the active
// screen and routes every message it does not consume to it.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View(width, height int) string
	Title() string
	// Throttle returns the resend throttle whose countdown the screen shows,
	// or nil.
	Throttle() *throttle.Throttle
	// Help lists the screen's keys for the help dialog.
	Help() components.HelpDialogSection
}

// inputCapturer is implemented by screens whose focused widget accepts free
// text, so printable global keys must not be intercepted.
type inputCapturer interface {
	CapturingInput() bool
}

// navigateMsg replaces the active screen.
type navigateMsg struct {
	to screen
}

func navigate(to screen) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

// env is shared by every screen.
type env struct {
	ctx     context.Context
	cfg     *config.Config
	auth    *auth.Service
	scripts *script.Service
	toasts  *toast.Engine
	oauth   *auth.OAuth

	openURL   func(url string) error
	clipboard func(text string) error
}

// fail reports err through the toast engine.
func (e *env) fail(err error) {
	if err != nil {
		e.toasts.Error(errorText(err))
	}
}
