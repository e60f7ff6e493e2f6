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

type signInStep int

const (
	signInEmail signInStep = iota
	signInStepPassword
)

// signInScreen looks the account up by email, then asks for a password or
// sends a one-time code depending on the account's first factor.
type signInScreen struct {
	env      *env
	step     signInStep
	email    *form.TextField
	password *form.TextField
	busy     activity
}

func newSignInScreen(e *env, email string) *signInScreen {
	s := &signInScreen{
		env:      e,
		email:    form.NewTextField(styles.IconMail+" Email", "you@example.com", email),
		password: form.NewPasswordField(styles.IconLock+" Password", ""),
		busy:     newActivity(),
	}
	return s
}

func (s *signInScreen) Init() tea.Cmd { return s.email.Focus() }

func (s *signInScreen) Title() string { return "Sign in" }

func (s *signInScreen) CapturingInput() bool { return true }

func (s *signInScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			return s, nil
		}
		return s.handleKey(msg)

	case lookupMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		if msg.factor == auth.FactorEmailCode {
			return s, tea.Batch(s.busy.start("Sending code…"), startCodeSignIn(s.env, s.email.String()))
		}
		s.step = signInStepPassword
		s.email.Blur()
		return s, s.password.Focus()

	case flowMsg:
		s.busy.stop()
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.env.toasts.Info("We sent a sign-in code to " + msg.flow.Email())
		return s, navigate(newVerifyScreen(s.env, msg.flow, s))

	case sessionMsg:
		s.busy.stop()
		if msg.err != nil {
			s.password.SetValue("")
			s.env.fail(msg.err)
			return s, nil
		}
		return s, signedIn(s.env, msg.session)
	}

	return s, s.busy.update(msg)
}

func (s *signInScreen) handleKey(msg tea.KeyPressMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if s.step == signInStepPassword {
			s.step = signInEmail
			s.password.SetValue("")
			s.password.Blur()
			return s, s.email.Focus()
		}
		return s, navigate(newWelcomeScreen(s.env))

	case "enter":
		if s.step == signInEmail {
			return s, s.submitEmail()
		}
		return s, s.submitPassword()

	case "ctrl+f":
		return s, navigate(newResetScreen(s.env, s.email.String()))

	case "ctrl+e":
		if s.step == signInStepPassword {
			return s, tea.Batch(s.busy.start("Sending code…"), startCodeSignIn(s.env, s.email.String()))
		}

	case "ctrl+n":
		return s, navigate(newSignUpScreen(s.env))
	}

	var cmd tea.Cmd
	if s.step == signInEmail {
		_, cmd = s.email.Update(msg)
	} else {
		_, cmd = s.password.Update(msg)
	}
	return s, cmd
}

func (s *signInScreen) submitEmail() tea.Cmd {
	email := auth.NormalizeEmail(s.email.String())
	if err := auth.ValidateEmail(email); err != nil {
		s.env.toasts.Warning(sentence(err.Error()))
		return nil
	}
	return tea.Batch(s.busy.start("Looking up account…"), lookupAccount(s.env, email))
}

func (s *signInScreen) submitPassword() tea.Cmd {
	if err := auth.ValidatePassword(s.password.String()); err != nil {
		s.env.toasts.Warning(sentence(err.Error()))
		return nil
	}
	return tea.Batch(
		s.busy.start("Signing in…"),
		signInPassword(s.env, s.email.String(), s.password.String()),
	)
}

func (s *signInScreen) View(width, height int) string {
	parts := []string{styles.FormTitleStyle.Render("Sign in to scribe"), "", s.email.View()}

	if s.step == signInStepPassword {
		parts = append(parts, "", s.password.View())
	}

	parts = append(parts, "")
	if s.busy.active {
		parts = append(parts, s.busy.View())
	} else if s.step == signInEmail {
		parts = append(parts, keyHint("enter", "continue", "ctrl+n", "create account", "esc", "back"))
	} else {
		parts = append(parts,
			keyHint("enter", "sign in", "ctrl+e", "email me a code"),
			keyHint("ctrl+f", "forgot password", "esc", "change email"),
		)
	}

	return panel(lipgloss.JoinVertical(lipgloss.Left, parts...), width, height)
}

func (s *signInScreen) Throttle() *throttle.Throttle { return nil }

func (s *signInScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Sign in",
		Entries: []components.HelpEntry{
			{Key: "enter", Desc: "continue"},
			{Key: "ctrl+e", Desc: "sign in with an email code"},
			{Key: "ctrl+f", Desc: "reset password"},
			{Key: "ctrl+n", Desc: "create account"},
			{Key: "esc", Desc: "back"},
		},
	}
}

