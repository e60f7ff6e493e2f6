package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

// activity shows a spinner while a screen waits on a remote call.
type activity struct {
	spinner spinner.Model
	label   string
	active  bool
}

func newActivity() activity {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.TextPrimaryStyle
	return activity{spinner: s}
}

func (a *activity) start(label string) tea.Cmd {
	a.active = true
	a.label = label
	return a.spinner.Tick
}

func (a *activity) stop() {
	a.active = false
}

func (a *activity) update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(spinner.TickMsg)
	if !ok || !a.active {
		return nil
	}
	var cmd tea.Cmd
	a.spinner, cmd = a.spinner.Update(tick)
	return cmd
}

func (a activity) View() string {
	if !a.active {
		return ""
	}
	return a.spinner.View() + " " + styles.MutedStyle.Render(a.label)
}
