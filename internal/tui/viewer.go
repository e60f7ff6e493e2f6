package tui

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/rs/zerolog/log"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
)

// viewerChrome is the rows used by the header and footer around the viewport.
const viewerChrome = 4

// viewerScreen shows a generated script as rendered markdown.
type viewerScreen struct {
	env      *env
	script   script.Script
	back     screen
	viewport viewport.Model
	width    int
	busy     activity
	cancel   context.CancelFunc
}

func newViewerScreen(e *env, sc script.Script, back screen) *viewerScreen {
	return &viewerScreen{
		env:      e,
		script:   sc,
		back:     back,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		busy:     newActivity(),
	}
}

func (s *viewerScreen) Init() tea.Cmd { return nil }

func (s *viewerScreen) Title() string { return s.script.Title }

func (s *viewerScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg.Width, msg.Height)
		return s, nil

	case tea.KeyPressMsg:
		if s.busy.active {
			if msg.String() == "esc" && s.cancel != nil {
				s.cancel()
			}
			return s, nil
		}
		switch msg.String() {
		case "esc", "q":
			return s, navigate(s.back)
		case "c":
			return s, copyScript(s.env, s.script)
		case "e":
			return s, exportScript(s.env, s.script)
		case "r":
			ctx, cancel := context.WithCancel(s.env.ctx)
			s.cancel = cancel
			return s, tea.Batch(
				s.busy.start("Regenerating… (esc to stop)"),
				regenerateScript(ctx, s.env, s.script),
			)
		}
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		return s, cmd

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		s.viewport, cmd = s.viewport.Update(msg)
		return s, cmd

	case copiedMsg:
		s.env.toasts.Success("Script copied to clipboard.")
		if msg.err != nil {
			log.Debug().Err(msg.err).Msg("system clipboard unavailable, using terminal clipboard")
			return s, tea.SetClipboard(s.script.Markdown())
		}
		return s, nil

	case exportedMsg:
		if msg.err != nil {
			s.env.toasts.Error("Could not save the script: " + msg.err.Error())
			return s, nil
		}
		s.env.toasts.Success("Saved to " + msg.path)
		return s, nil

	case generatedMsg:
		s.busy.stop()
		s.cancel = nil
		if msg.err != nil {
			if errors.Is(msg.err, script.ErrStopped) {
				s.env.toasts.Info("Generation stopped.")
				return s, nil
			}
			s.env.fail(msg.err)
			return s, nil
		}
		s.script = msg.script
		s.render()
		s.viewport.GotoTop()
		s.env.toasts.Success("Script regenerated.")
		return s, nil
	}

	return s, s.busy.update(msg)
}

func (s *viewerScreen) resize(width, height int) {
	s.viewport.SetWidth(width)
	s.viewport.SetHeight(max(height-viewerChrome, 1))
	if width != s.width {
		s.width = width
		s.render()
	}
}

func (s *viewerScreen) render() {
	content, err := styles.RenderMarkdown(s.script.Markdown(), s.width-2)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		content = s.script.Markdown()
	}
	s.viewport.SetContent(content)
}

func (s *viewerScreen) View(width, height int) string {
	meta := []string{s.script.Topic}
	for _, k := range []script.OptionKey{script.Platform, script.Duration, script.Language, script.Style} {
		meta = append(meta, s.script.Options.Value(k))
	}
	header := styles.MutedStyle.Render(strings.Join(meta, " · "))

	footer := keyHint("↑/↓", "scroll", "c", "copy", "e", "export", "r", "regenerate", "esc", "back")
	if s.busy.active {
		footer = s.busy.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		s.viewport.View(),
		"",
		footer,
	)
}

func (s *viewerScreen) Throttle() *throttle.Throttle { return nil }

func (s *viewerScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Script",
		Entries: []components.HelpEntry{
			{Key: "↑/↓", Desc: "scroll"},
			{Key: "c", Desc: "copy to clipboard"},
			{Key: "e", Desc: "export markdown"},
			{Key: "r", Desc: "regenerate"},
			{Key: "esc", Desc: "back"},
		},
	}
}
