package tui

import (
	"fmt"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
)

// scriptItem adapts a script to the list.
type scriptItem struct {
	script script.Script
}

func (i scriptItem) Title() string { return i.script.Title }

func (i scriptItem) Description() string {
	return fmt.Sprintf("%s · %s · %s",
		i.script.CreatedAt.Local().Format("Jan 2 15:04"),
		i.script.Options.Value(script.Platform),
		i.script.Topic,
	)
}

func (i scriptItem) FilterValue() string { return i.script.Title + " " + i.script.Topic }

// historyScreen lists previously generated scripts.
type historyScreen struct {
	env     *env
	back    screen
	list    list.Model
	confirm *components.ConfirmModal
	pending string
	width   int
	height  int
}

func newHistoryScreen(e *env, back screen) *historyScreen {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(styles.ColorPrimary).
		BorderForeground(styles.ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(styles.ColorSecondary).
		BorderForeground(styles.ColorPrimary)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(styles.ColorForeground)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.Foreground(styles.ColorMuted)

	l := list.New(nil, delegate, 80, 20)
	l.Title = styles.IconHistory + " History"
	l.Styles.Title = styles.AppTitleStyle
	l.SetShowHelp(false)
	l.SetStatusBarItemName("script", "scripts")

	return &historyScreen{env: e, back: back, list: l}
}

func (s *historyScreen) Init() tea.Cmd { return loadHistory(s.env) }

func (s *historyScreen) Title() string { return "History" }

func (s *historyScreen) CapturingInput() bool { return s.list.SettingFilter() }

func (s *historyScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		s.list.SetSize(msg.Width, max(msg.Height-2, 1))
		return s, nil

	case historyMsg:
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		items := make([]list.Item, len(msg.scripts))
		for i, sc := range msg.scripts {
			items[i] = scriptItem{script: sc}
		}
		return s, s.list.SetItems(items)

	case deletedMsg:
		if msg.err != nil {
			s.env.fail(msg.err)
			return s, nil
		}
		s.env.toasts.Success("Script deleted.")
		return s, loadHistory(s.env)

	case tea.KeyPressMsg:
		if s.confirm != nil {
			return s.handleConfirm(msg)
		}
		if s.list.SettingFilter() {
			break
		}
		switch msg.String() {
		case "esc":
			if s.list.FilterState() == list.FilterApplied {
				s.list.ResetFilter()
				return s, nil
			}
			return s, navigate(s.back)
		case "enter":
			if item, ok := s.list.SelectedItem().(scriptItem); ok {
				return s, navigate(newViewerScreen(s.env, item.script, s))
			}
			return s, nil
		case "d", "delete":
			if item, ok := s.list.SelectedItem().(scriptItem); ok {
				m := components.NewConfirmModal(fmt.Sprintf("Delete %q?", item.script.Title))
				s.confirm = &m
				s.pending = item.script.ID
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *historyScreen) handleConfirm(msg tea.KeyPressMsg) (screen, tea.Cmd) {
	m, _ := s.confirm.Update(msg)
	switch {
	case m.Confirmed():
		id := s.pending
		s.confirm, s.pending = nil, ""
		return s, deleteScript(s.env, id)
	case m.Cancelled():
		s.confirm, s.pending = nil, ""
		return s, nil
	}
	s.confirm = &m
	return s, nil
}

func (s *historyScreen) View(width, height int) string {
	view := lipgloss.JoinVertical(lipgloss.Left,
		s.list.View(),
		"",
		keyHint("enter", "open", "/", "filter", "d", "delete", "esc", "back"),
	)
	if s.confirm != nil {
		return s.confirm.Overlay(view, width, height)
	}
	return view
}

func (s *historyScreen) Throttle() *throttle.Throttle { return nil }

func (s *historyScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "History",
		Entries: []components.HelpEntry{
			{Key: "↑/↓", Desc: "navigate"},
			{Key: "enter", Desc: "open script"},
			{Key: "/", Desc: "filter"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back"},
		},
	}
}
