package tui

import (
	"fmt"
	"strings"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
)

// resendStatus describes when a code can be sent again.
func resendStatus(t *throttle.Throttle) string {
	st := t.State()
	switch {
	case st.Locked:
		return styles.ErrorTextStyle.Render("Too many attempts. Try again in " + auth.FormatWait(st.Remaining))
	case !st.CanResend:
		return styles.MutedStyle.Render("Resend code in " + auth.FormatWait(st.Remaining))
	default:
		return styles.LinkStyle.Render("ctrl+r") + styles.MutedStyle.Render(" resend code")
	}
}

// attemptsStatus reports the resends left before lockout.
func attemptsStatus(t *throttle.Throttle) string {
	left := t.AttemptsLeft()
	if left == 1 {
		return styles.WarningTextStyle.Render("1 resend left")
	}
	return styles.MutedStyle.Render(fmt.Sprintf("%d resends left", left))
}

// strengthChecklist renders the password rules with their current state.
func strengthChecklist(password string) string {
	r := auth.PasswordStrength(password)
	rules := []struct {
		ok    bool
		label string
	}{
		{r.Length, fmt.Sprintf("At least %d characters", auth.MinPasswordLength)},
		{r.Uppercase, "One uppercase letter"},
		{r.Lowercase, "One lowercase letter"},
		{r.Number, "One number"},
		{r.Special, "One special character"},
	}

	lines := make([]string, 0, len(rules)+1)
	lines = append(lines, styles.MutedStyle.Render(fmt.Sprintf("Strength %d/5", r.Score())))
	for _, rule := range rules {
		if rule.ok {
			lines = append(lines, styles.StrengthMetStyle.Render(styles.IconSuccess+" "+rule.label))
		} else {
			lines = append(lines, styles.StrengthUnmetStyle.Render(styles.IconBullet+" "+rule.label))
		}
	}
	return strings.Join(lines, "\n")
}

// buttonRow renders labels as buttons with focused highlighted.
func buttonRow(labels []string, focused int) string {
	buttons := make([]string, 0, len(labels)*2)
	for i, l := range labels {
		if i > 0 {
			buttons = append(buttons, "  ")
		}
		style := styles.ButtonStyle
		if i == focused {
			style = styles.ButtonFocusedStyle
		}
		buttons = append(buttons, style.Render(l))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

// panel centers content in a bordered box within the body area.
func panel(content string, width, height int) string {
	box := styles.PanelStyle.Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// keyHint renders "key desc" pairs for footers.
func keyHint(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, styles.TextPrimaryStyle.Render(pairs[i])+" "+styles.MutedStyle.Render(pairs[i+1]))
	}
	return strings.Join(parts, styles.MutedStyle.Render("  •  "))
}
