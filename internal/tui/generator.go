package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/script"
	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/throttle"
	"github.com/colonyops/scribe/internal/tui/components"
	"github.com/colonyops/scribe/internal/tui/components/form"
)

const topicMaxLength = 200

// generatorScreen collects a topic and options and runs generation.
type generatorScreen struct {
	env    *env
	dialog *form.Dialog
	busy   activity
	cancel context.CancelFunc
}

func newGeneratorScreen(e *env) *generatorScreen {
	topic := form.NewTextField(styles.IconScript+" Topic", "What is your video about?", "").
		WithValidation(form.FieldValidation{Required: true, MaxLength: topicMaxLength})
	topic.SetWidth(56)

	fields := []form.Field{topic}
	names := []string{"topic"}
	for _, k := range script.OptionKeys() {
		if k == script.Language {
			fields = append(fields, form.NewSelectFormField(k.Label(), k.Choices(), ""))
		} else {
			fields = append(fields, form.NewChipField(k.Label(), k.Choices(), ""))
		}
		names = append(names, k.String())
	}

	d := form.NewDialog("New script", fields, names)
	d.Help = ""
	d.Compact = true
	return &generatorScreen{env: e, dialog: d, busy: newActivity()}
}

func (s *generatorScreen) Init() tea.Cmd {
	return s.dialog.FocusField(0)
}

func (s *generatorScreen) Title() string { return "New script" }

func (s *generatorScreen) CapturingInput() bool {
	return s.dialog.Focused() == 0 || s.busy.active
}

// options reads the selected option values from the form.
func (s *generatorScreen) options() script.Options {
	values := make(map[string]string, len(script.OptionKeys()))
	for _, k := range script.OptionKeys() {
		values[k.String()] = s.dialog.String(k.String())
	}
	return script.OptionsFromValues(values)
}

func (s *generatorScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		if s.busy.active {
			if msg.String() == "esc" {
				s.stop()
			}
			return s, nil
		}
		return s.handleKey(msg)

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
		s.env.toasts.Success("Script generated.")
		return s, navigate(newViewerScreen(s.env, msg.script, s))

	case signedOutMsg:
		if msg.err != nil {
			s.env.toasts.Warning("Signed out locally. The server session could not be closed.")
		} else {
			s.env.toasts.Info("Signed out.")
		}
		return s, navigate(newWelcomeScreen(s.env))
	}

	return s, s.busy.update(msg)
}

func (s *generatorScreen) handleKey(msg tea.KeyPressMsg) (screen, tea.Cmd) {
	switch msg.String() {
	case "ctrl+g":
		return s, s.generate()
	case "ctrl+h":
		return s, navigate(newHistoryScreen(s.env, s))
	case "ctrl+l":
		return s, signOut(s.env)
	}

	var cmd tea.Cmd
	s.dialog, cmd = s.dialog.Update(msg)
	switch {
	case s.dialog.Cancelled():
		s.dialog.Reset()
	case s.dialog.Submitted():
		s.dialog.Reset()
		return s, s.generate()
	}
	return s, cmd
}

func (s *generatorScreen) generate() tea.Cmd {
	if !s.dialog.Validate() {
		if strings.TrimSpace(s.dialog.String("topic")) == "" {
			s.env.toasts.Warning(errorText(script.ErrEmptyTopic))
		} else {
			s.env.toasts.Warning(sentence(fmt.Sprintf("topic can be at most %d characters", topicMaxLength)))
		}
		return nil
	}

	ctx, cancel := context.WithCancel(s.env.ctx)
	s.cancel = cancel
	return tea.Batch(
		s.busy.start("Generating script… (esc to stop)"),
		generateScript(ctx, s.env, s.dialog.String("topic"), s.options()),
	)
}

// stop cancels a running generation. The result arrives as ErrStopped.
func (s *generatorScreen) stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *generatorScreen) View(width, height int) string {
	footer := keyHint("tab", "next", "←/→", "choose", "ctrl+g", "generate", "ctrl+h", "history", "ctrl+l", "sign out")
	if s.busy.active {
		footer = s.busy.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.FormTitleStyle.Render("What should the script be about?"),
		"",
		s.dialog.View(),
		"",
		footer,
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, content)
}

func (s *generatorScreen) Throttle() *throttle.Throttle { return nil }

func (s *generatorScreen) Help() components.HelpDialogSection {
	return components.HelpDialogSection{
		Title: "Generator",
		Entries: []components.HelpEntry{
			{Key: "tab", Desc: "next field"},
			{Key: "←/→", Desc: "change option"},
			{Key: "/", Desc: "filter languages"},
			{Key: "ctrl+g", Desc: "generate"},
			{Key: "esc", Desc: "stop generation"},
			{Key: "ctrl+h", Desc: "history"},
			{Key: "ctrl+l", Desc: "sign out"},
		},
	}
}
