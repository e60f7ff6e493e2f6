package form

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

// ChipField is a single-choice field rendered as a row of chips. Left and
// right move the selection and wrap at either end.
type ChipField struct {
	label    string
	choices  []string
	selected int
	focused  bool
}

// NewChipField creates a chip row. defaultVal pre-selects the matching choice;
// otherwise the first choice is selected.
func NewChipField(label string, choices []string, defaultVal string) *ChipField {
	f := &ChipField{label: label, choices: choices}
	f.SetValue(defaultVal)
	return f
}

func (f *ChipField) Update(msg tea.Msg) (Field, tea.Cmd) {
	if !f.focused || len(f.choices) == 0 {
		return f, nil
	}

	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return f, nil
	}

	switch keyMsg.String() {
	case "left", "h":
		f.selected = (f.selected - 1 + len(f.choices)) % len(f.choices)
	case "right", "l", "space":
		f.selected = (f.selected + 1) % len(f.choices)
	case "home":
		f.selected = 0
	case "end":
		f.selected = len(f.choices) - 1
	}
	return f, nil
}

func (f *ChipField) View() string {
	titleStyle := styles.TextMutedStyle
	if f.focused {
		titleStyle = styles.FormTitleStyle
	}

	chips := make([]string, len(f.choices))
	for i, c := range f.choices {
		style := styles.ChipStyle
		if i == f.selected {
			style = styles.ChipSelectedStyle
		}
		chips[i] = style.Render(c)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(f.label),
		lipgloss.JoinHorizontal(lipgloss.Top, chips...),
	)

	borderStyle := styles.FormFieldStyle
	if f.focused {
		borderStyle = styles.FormFieldFocusedStyle
	}
	return borderStyle.Render(content)
}

// SetValue selects the choice matching v, case-insensitively.
func (f *ChipField) SetValue(v string) {
	f.selected = 0
	for i, c := range f.choices {
		if strings.EqualFold(c, v) {
			f.selected = i
			return
		}
	}
}

// Index returns the selected position.
func (f *ChipField) Index() int { return f.selected }

func (f *ChipField) Focus() tea.Cmd {
	f.focused = true
	return nil
}

func (f *ChipField) Blur() { f.focused = false }

func (f *ChipField) Focused() bool { return f.focused }

func (f *ChipField) Value() any { return f.String() }

func (f *ChipField) String() string {
	if len(f.choices) == 0 {
		return ""
	}
	return f.choices[f.selected]
}

func (f *ChipField) Label() string { return f.label }
