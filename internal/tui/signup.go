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

// signUpScreen collects the new account's credentials and starts email
// verification.
type signUpScreen struct {
	env    *env
	dialog *form.Dialog
	busy   activity
}

func newSignUpScreen(e *env) *signUpScreen {
	required := form.FieldValidation{Required: true}
	fields := []form.Field{
		form.NewTextField(styles.IconMail+" Email", "you@example.com", "").WithValidation(required),
		form.NewPasswordField(styles.IconLock+" Password", "").WithValidation(required),
		form.NewPasswordField(styles.IconLock+" Confirm password", "").WithValidation(required),
	}
	d := form.NewDialog("Create account", fields, []string{"email", "password", "confirm"})
	d.Help = ""
	return &signUpScreen{env: e, dialog: d, busy: newActivity()}
}

func (s *signUpScreen) Init() tea.Cmd { return nil }

func (s *signUpScreen) Title() string { return "Create account" }

func (s *signUpScreen) CapturingInput() bool { return true }

func (s *signUpScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			return s, nil
		}
		if msg.String() == "ctrl+n" {
			return s, navigate(newSignInScreen(s.env, s.dialog.String("email")))
		}

		var cmd tea.Cmd
		s.dialog, cmd = s.dialog.Update(msg)
		switch {
		case s.dialog.Cancelled():
			return s, navigate(newWelcomeScreen(s.env))
		case s.dialog.Submitted():
			s.dialog.Reset()
			return s, s.submit()
		}
		return s, cmd

	case flowMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.env.toasts.Success("Account created. Check your email for a verification code.")
		return s, navigate(newVerifyScreen(s.env, msg.flow, newWelcomeScreen(s.env)))
	}

	return s, s.busy.update(msg)
}

func (s *signUpScreen) submit() tea.Cmd {
	email := auth.NormalizeEmail(s.dialog.String("email"))
	password := s.dialog.String("password")

	if err := auth.ValidateEmail(email); err != nil {
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

	return tea.Batch(s.busy.start("Creating account…"), signUp(s.env, email, password))
}

func (s *signUpScreen) View(width, height int) string {
	footer := keyHint("tab", "next field", "enter", "create account", "ctrl+n", "sign in instead", "esc", "back")
	if s.busy.active {
		footer = s.busy.View()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		s.dialog.View(),
		"    ",
		strengthChecklist(s.dialog.String("password")),
	)

	return panel(lipgloss.JoinVertical(lipgloss.Left,
		styles.FormTitleStyle.Render("Create your account"),
		"",
		body,
		"",
		footer,
	), width, height)
}

func (s *signUpScreen) Throttle() *throttle.Throttle { return nil }

func (s *signUpScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Create account",
		Entries: []components.HelpEntry{
			{Key: "tab", Desc: "next field"},
			{Key: "shift+tab", Desc: "previous field"},
			{Key: "enter", Desc: "next / submit"},
			{Key: "ctrl+n", Desc: "sign in instead"},
			{Key: "esc", Desc: "back"},
		},
	}
}
