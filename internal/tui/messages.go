package tui

import (
	"errors"
	"strings"
	"time"
	"unicode"

	tea "charm.land/bubbletea/v2"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/scribe/internal/core/auth"
	"github.com/colonyops/scribe/internal/core/script"
)

// Results of asynchronous operations. Each is produced by a command started
// from a screen and routed back to the active screen.
type (
	lookupMsg struct {
		factor auth.Factor
		err    error
	}
	sessionMsg struct {
		session auth.Session
		err     error
	}
	oauthMsg struct {
		identity auth.OAuthIdentity
		err      error
	}
	flowMsg struct {
		flow *auth.VerificationFlow
		err  error
	}
	resendMsg struct {
		left int
		err  error
	}
	resetRequestedMsg struct {
		err error
	}
	resetCompleteMsg struct {
		err error
	}
	signedOutMsg struct {
		err error
	}
	generatedMsg struct {
		script script.Script
		err    error
	}
	historyMsg struct {
		scripts []script.Script
		err     error
	}
	deletedMsg struct {
		id  string
		err error
	}
	copiedMsg struct {
		err error
	}
	exportedMsg struct {
		path string
		err  error
	}
)

// countdownMsg redraws a throttle countdown.
type countdownMsg time.Time

const countdownInterval = time.Second

func scheduleCountdown() tea.Cmd {
	return tea.Tick(countdownInterval, func(t time.Time) tea.Msg {
		return countdownMsg(t)
	})
}

// errorText converts err into the sentence shown in a toast.
func errorText(err error) string {
	var fields criterio.FieldErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return sentence(fields[0].Err.Error())
	}

	switch {
	case errors.Is(err, script.ErrEmptyTopic),
		errors.Is(err, script.ErrEmptyResult),
		errors.Is(err, script.ErrStopped),
		errors.Is(err, script.ErrNotFound),
		errors.Is(err, script.ErrNotConfigured):
		return sentence(err.Error())
	case errors.Is(err, auth.ErrNoPendingFlow):
		return "No verification in progress. Please start again."
	}
	return auth.Message(err)
}

// sentence capitalizes s and ends it with a period.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	s = string(r)
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s
}
