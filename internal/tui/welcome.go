package tui

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
)

type welcomeAction int

const (
	actionSignIn welcomeAction = iota
	actionSignUp
	actionGoogle
)

// oauthTimeout bounds the wait for the browser consent page.
const oauthTimeout = 5 * time.Minute

// welcomeScreen is shown while signed out.
type welcomeScreen struct {
	env     *env
	actions []welcomeAction
	focused int
	busy    activity
	cancel  context.CancelFunc // set while waiting on the browser
}

func newWelcomeScreen(e *env) *welcomeScreen {
	actions := []welcomeAction{actionSignIn, actionSignUp}
	if e.oauth != nil {
		actions = append(actions, actionGoogle)
	}
	return &welcomeScreen{env: e, actions: actions, busy: newActivity()}
}

func (s *welcomeScreen) Init() tea.Cmd { return nil }

func (s *welcomeScreen) Title() string { return "Welcome" }

func (s *welcomeScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			if msg.String() == "esc" && s.cancel != nil {
				s.cancel()
			}
			return s, nil
		}
		switch msg.String() {
		case "left", "shift+tab", "h":
			s.focused = (s.focused - 1 + len(s.actions)) % len(s.actions)
		case "right", "tab", "l":
			s.focused = (s.focused + 1) % len(s.actions)
		case "s":
			return s, s.run(actionSignIn)
		case "c":
			return s, s.run(actionSignUp)
		case "g":
			if s.env.oauth != nil {
				return s, s.run(actionGoogle)
			}
		case "enter":
			return s, s.run(s.actions[s.focused])
		}
		return s, nil

	case oauthMsg:
		s.stopWaiting()
		if msg.err != nil {
			s.busy.stop()
			switch {
			case errors.Is(msg.err, context.Canceled):
				s.env.toasts.Info("Google sign-in cancelled.")
			case errors.Is(msg.err, context.DeadlineExceeded):
				s.env.toasts.Warning("Google sign-in timed out. Please try again.")
			default:
				s.env.fail(msg.err)
			}
			return s, nil
		}
		return s, signInOAuth(s.env, msg.identity)

	case sessionMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		return s, signedIn(s.env, msg.session)
	}

	return s, s.busy.update(msg)
}

func (s *welcomeScreen) run(a welcomeAction) tea.Cmd {
	switch a {
	case actionSignUp:
		return navigate(newSignUpScreen(s.env))
	case actionGoogle:
		ctx, cancel := context.WithTimeout(s.env.ctx, oauthTimeout)
		s.cancel = cancel
		return tea.Batch(
			s.busy.start("Waiting for Google sign-in in your browser… (esc to cancel)"),
			loginOAuth(ctx, s.env),
		)
	default:
		return navigate(newSignInScreen(s.env, ""))
	}
}

// stopWaiting releases the browser wait once its result is in.
func (s *welcomeScreen) stopWaiting() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *welcomeScreen) View(width, height int) string {
	labels := make([]string, len(s.actions))
	for i, a := range s.actions {
		switch a {
		case actionSignIn:
			labels[i] = "Sign in"
		case actionSignUp:
			labels[i] = "Create account"
		case actionGoogle:
			labels[i] = "Continue with Google"
		}
	}

	parts := []string{
		styles.AppTitleStyle.Render(styles.IconScript + " scribe"),
		styles.AppSubtitleStyle.Render("Generate video scripts with AI"),
		"",
		buttonRow(labels, s.focused),
	}
	if s.busy.active {
		parts = append(parts, "", s.busy.View())
	}

	return panel(lipgloss.JoinVertical(lipgloss.Center, parts...), width, height)
}

func (s *welcomeScreen) Throttle() *throttle.Throttle { return nil }

func (s *welcomeScreen) Help() components.HelpDialogSection {
	entries := []components.HelpEntry{
		{Key: "←/→", Desc: "choose"},
		{Key: "enter", Desc: "select"},
		{Key: "s", Desc: "sign in"},
		{Key: "c", Desc: "create account"},
	}
	if s.env.oauth != nil {
		entries = append(entries,
			components.HelpEntry{Key: "g", Desc: "continue with Google"},
			components.HelpEntry{Key: "esc", Desc: "cancel Google sign-in"},
		)
	}
	return components.HelpDialogSection{Title: "Welcome", Entries: entries}
}
