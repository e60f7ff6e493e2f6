package tui

import (
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
	"github.com/colonyops/scribe/internal/tui/components/form"
)

// resetScreen walks a password reset: request a code, then enter it with the
// new password.
type resetScreen struct {
	env    *env
	flow   *auth.ResetFlow
	email  *form.TextField
	dialog *form.Dialog
	busy   activity
}

func newResetScreen(e *env, email string) *resetScreen {
	required := form.FieldValidation{Required: true}
	fields := []form.Field{
		form.NewTextField("Reset code", "123456", "").WithCharLimit(auth.CodeLength).WithValidation(required),
		form.NewPasswordField(styles.IconLock+" New password", "").WithValidation(required),
		form.NewPasswordField(styles.IconLock+" Confirm new password", "").WithValidation(required),
	}
	d := form.NewDialog("New password", fields, []string{"code", "password", "confirm"})
	d.Help = ""

	return &resetScreen{
		env:    e,
		flow:   e.auth.NewResetFlow(),
		email:  form.NewTextField(styles.IconMail+" Email", "you@example.com", email),
		dialog: d,
		busy:   newActivity(),
	}
}

func (s *resetScreen) Init() tea.Cmd { return s.email.Focus() }

func (s *resetScreen) Title() string { return "Reset password" }

func (s *resetScreen) CapturingInput() bool { return true }

func (s *resetScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			return s, nil
		}
		if s.flow.Step() == auth.StepEmail {
			return s.handleEmailKey(msg)
		}
		return s.handleCodeKey(msg)

	case resetRequestedMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.email.Blur()
		s.env.toasts.Info("If an account exists for " + s.flow.Email() + ", a reset code is on its way.")
		return s, s.dialog.Field("code").Focus()

	case resendMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.env.toasts.Success("A new reset code was sent.")
		return s, nil

	case resetCompleteMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		email := s.email.String()
		s.env.toasts.Success("Password updated. Please sign in with your new password.")
		return s, navigate(newSignInScreen(s.env, email))
	}

	return s, s.busy.update(msg)
}

func (s *resetScreen) handleEmailKey(msg tea.KeyPressMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return s, s.leave()
	case "enter":
		email := auth.NormalizeEmail(s.email.String())
		if err := auth.ValidateEmail(email); err != nil {
			s.env.toasts.Warning(sentence(err.Error()))
			return s, nil
		}
		return s, tea.Batch(s.busy.start("Requesting reset code…"), requestReset(s.env, s.flow, email))
	}
	_, cmd := s.email.Update(msg)
	return s, cmd
}

func (s *resetScreen) handleCodeKey(msg tea.KeyPressMsg) (screen, tea.Cmd) {
	if msg.String() == "ctrl+r" {
		if err := s.flow.Throttle().Check(); err != nil {
			s.env.fail(err)
			return s, nil
		}
		return s, tea.Batch(s.busy.start("Sending a new code…"), resendReset(s.env, s.flow))
	}

	var cmd tea.Cmd
	s.dialog, cmd = s.dialog.Update(msg)
	switch {
	case s.dialog.Cancelled():
		return s, s.leave()
	case s.dialog.Submitted():
		s.dialog.Reset()
		return s, s.submit()
	}
	return s, cmd
}

func (s *resetScreen) submit() tea.Cmd {
	code := s.dialog.String("code")
	password := s.dialog.String("password")

	if err := auth.ValidateCode(code); err != nil {
		s.dialog.FocusField(0)
		s.env.toasts.Warning(sentence(err.Error()))
		return nil
	}
	if err := auth.ValidateNewPassword(password); err != nil {
		s.dialog.FocusField(1)
		s.env.toasts.Warning(sentence(err.Error()))
		return nil
	}
	if password != s.dialog.String("confirm") {
		s.dialog.FocusField(2)
		s.env.toasts.Warning("Passwords do not match.")
		return nil
	}

	return tea.Batch(s.busy.start("Updating password…"), completeReset(s.env, s.flow, code, password))
}

// leave clears the pending reset before returning to sign-in.
func (s *resetScreen) leave() tea.Cmd {
	email := s.email.String()
	s.flow.Cancel()
	return navigate(newSignInScreen(s.env, email))
}

func (s *resetScreen) View(width, height int) string {
	parts := []string{styles.FormTitleStyle.Render("Reset your password"), ""}

	if s.flow.Step() == auth.StepEmail {
		parts = append(parts,
			styles.MutedStyle.Render("Enter your account email and we'll send you a reset code."),
			"",
			s.email.View(),
			"",
		)
		if s.busy.active {
			parts = append(parts, s.busy.View())
		} else {
			parts = append(parts, keyHint("enter", "send code", "esc", "back"))
		}
		return panel(lipgloss.JoinVertical(lipgloss.Left, parts...), width, height)
	}

	parts = append(parts,
		styles.MutedStyle.Render("Code sent to ")+styles.TextForegroundBoldStyle.Render(s.flow.Email()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.dialog.View(),
			"    ",
			strengthChecklist(s.dialog.String("password")),
		),
		"",
		codesStatus(s.flow.CodesLeft()),
		resendStatus(s.flow.Throttle())+styles.MutedStyle.Render("  •  ")+attemptsStatus(s.flow.Throttle()),
		"",
	)
	if s.busy.active {
		parts = append(parts, s.busy.View())
	} else {
		parts = append(parts, keyHint("tab", "next field", "enter", "update password", "esc", "cancel"))
	}
	return panel(lipgloss.JoinVertical(lipgloss.Left, parts...), width, height)
}

func (s *resetScreen) Throttle() *throttle.Throttle {
	if s.flow.Step() != auth.StepCode {
		return nil
	}
	return s.flow.Throttle()
}

func (s *resetScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Reset password",
		Entries: []components.HelpEntry{
			{Key: "enter", Desc: "next / submit"},
			{Key: "tab", Desc: "next field"},
			{Key: "ctrl+r", Desc: "resend code"},
			{Key: "esc", Desc: "cancel"},
		},
	}
}
