package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
	"github.com/colonyops/scribe/internal/tui/components/form"
)

// verifyScreen accepts the one-time code of a sign-up or code sign-in.
type verifyScreen struct {
	env  *env
	flow *auth.VerificationFlow
	back screen
	code *form.TextField
	busy activity
}

func newVerifyScreen(e *env, flow *auth.VerificationFlow, back screen) *verifyScreen {
	return &verifyScreen{
		env:  e,
		flow: flow,
		back: back,
		code: form.NewTextField("Verification code", "123456", "").WithCharLimit(auth.CodeLength),
		busy: newActivity(),
	}
}

func (s *verifyScreen) Init() tea.Cmd { return s.code.Focus() }

func (s *verifyScreen) Title() string {
	if s.flow.Purpose() == auth.PurposeSignUp {
		return "Verify email"
	}
	return "Enter code"
}

func (s *verifyScreen) CapturingInput() bool { return true }

func (s *verifyScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			s.flow.Cancel()
			return s, navigate(s.back)
		case "enter":
			return s, s.submit()
		case "ctrl+r":
			return s, s.resend()
		}
		_, cmd := s.code.Update(msg)
		return s, cmd

	case sessionMsg:
		s.busy.stop()
		if msg.err != nil {
			s.code.SetValue("")
			s.env.fail(msg.err)
			return s, nil
		}
		return s, signedIn(s.env, msg.session)

	case resendMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.code.SetValue("")
		s.env.toasts.Success(fmt.Sprintf("A new code was sent to %s.", s.flow.Email()))
		return s, nil
	}

	return s, s.busy.update(msg)
}

func (s *verifyScreen) submit() tea.Cmd {
	code := s.code.String()
	if err := auth.ValidateCode(code); err != nil {
		s.env.toasts.Warning(sentence(err.Error()))
		return nil
	}
	return tea.Batch(s.busy.start("Verifying…"), verifyCode(s.env, s.flow, code))
}

func (s *verifyScreen) resend() tea.Cmd {
	if err := s.flow.Throttle().Check(); err != nil {
		s.env.fail(err)
		return nil
	}
	return tea.Batch(s.busy.start("Sending a new code…"), resendCode(s.env, s.flow))
}

func (s *verifyScreen) View(width, height int) string {
	parts := []string{
		styles.FormTitleStyle.Render(s.Title()),
		styles.MutedStyle.Render("Code sent to ") + styles.TextForegroundBoldStyle.Render(s.flow.Email()),
		"",
		s.code.View(),
		"",
		codesStatus(s.flow.CodesLeft()),
		resendStatus(s.flow.Throttle()) + styles.MutedStyle.Render("  •  ") + attemptsStatus(s.flow.Throttle()),
		"",
	}
	if s.busy.active {
		parts = append(parts, s.busy.View())
	} else {
		parts = append(parts, keyHint("enter", "verify", "esc", "cancel"))
	}
	return panel(lipgloss.JoinVertical(lipgloss.Left, parts...), width, height)
}

func (s *verifyScreen) Throttle() *throttle.Throttle { return s.flow.Throttle() }

func (s *verifyScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Verification",
		Entries: []components.HelpEntry{
			{Key: "enter", Desc: "verify code"},
			{Key: "ctrl+r", Desc: "resend code"},
			{Key: "esc", Desc: "cancel"},
		},
	}
}

// codesStatus reports the code entries left for the current code.
func codesStatus(left int) string {
	switch left {
	case 0:
		return styles.ErrorTextStyle.Render(errorText(auth.ErrCodeExhausted))
	case 1:
		return styles.WarningTextStyle.Render("1 attempt left")
	default:
		return styles.MutedStyle.Render(fmt.Sprintf("%d attempts left", left))
	}
}

