package form

import (
	"io"

	"charm.land/bubbles/v2/list"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

const selectVisibleRows = 8

// choice is a list row; index points back into the field's choices.
type choice struct {
	label string
	index int
}

func (c choice) FilterValue() string { return c.label }

// choiceDelegate draws one choice per row with a cursor on the highlighted one.
type choiceDelegate struct{}

func (choiceDelegate) Height() int                         { return 1 }
func (choiceDelegate) Spacing() int                        { return 0 }
func (choiceDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (choiceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(choice)
	if !ok {
		return
	}
	if index == m.Index() {
		_, _ = io.WriteString(w, "> "+styles.SelectFieldItemSelectedStyle.Render(c.label))
		return
	}
	_, _ = io.WriteString(w, "  "+styles.TextForegroundStyle.Render(c.label))
}

// SelectFormField picks one value from a long list. While blurred it shows
// only the current value; focusing it opens a list that "/" filters.
type SelectFormField struct {
	list    list.Model
	choices []string
	label   string
	focused bool
}

// NewSelectFormField creates a select field. defaultVal pre-selects the
// matching choice; otherwise the first choice is selected.
func NewSelectFormField(label string, choices []string, defaultVal string) *SelectFormField {
	items := make([]list.Item, len(choices))
	for i, c := range choices {
		items[i] = choice{label: c, index: i}
	}

	l := list.New(items, choiceDelegate{}, 40, max(min(len(choices), selectVisibleRows), 1))
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(true)
	l.SetShowPagination(len(choices) > selectVisibleRows)
	l.Styles.TitleBar = lipgloss.NewStyle()

	l.FilterInput.Prompt = "/ "
	fs := textinput.DefaultStyles(true)
	fs.Focused.Prompt = styles.TextPrimaryStyle
	fs.Cursor.Color = styles.ColorPrimary
	l.FilterInput.SetStyles(fs)

	f := &SelectFormField{list: l, choices: choices, label: label}
	f.SetValue(defaultVal)
	return f
}

func (f *SelectFormField) Update(msg tea.Msg) (Field, tea.Cmd) {
	if !f.focused {
		return f, nil
	}
	var cmd tea.Cmd
	f.list, cmd = f.list.Update(msg)
	return f, cmd
}

func (f *SelectFormField) View() string {
	if !f.focused {
		row := styles.TextMutedStyle.Render(f.label) + "  " + styles.TextForegroundStyle.Render(f.String())
		return styles.FormFieldStyle.Render(row)
	}

	rows := []string{styles.FormTitleStyle.Render(f.label)}
	if f.list.SettingFilter() {
		rows = append(rows, f.list.FilterInput.View())
	}
	rows = append(rows, f.list.View())
	return styles.FormFieldFocusedStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (f *SelectFormField) Focus() tea.Cmd {
	f.focused = true
	return nil
}

// Blur closes the list and drops any filter in progress.
func (f *SelectFormField) Blur() {
	f.focused = false
	if f.list.SettingFilter() {
		idx := f.selectedIndex()
		f.list.ResetFilter()
		if idx >= 0 {
			f.list.Select(idx)
		}
	}
}

func (f *SelectFormField) Focused() bool { return f.focused }

func (f *SelectFormField) Value() any { return f.String() }

func (f *SelectFormField) Label() string { return f.label }

// String returns the selected choice, or "" when there are none.
func (f *SelectFormField) String() string {
	if idx := f.selectedIndex(); idx >= 0 {
		return f.choices[idx]
	}
	return ""
}

// SetValue selects the matching choice. Unknown values are ignored.
func (f *SelectFormField) SetValue(v string) {
	for i, c := range f.choices {
		if c == v {
			f.list.ResetFilter()
			f.list.Select(i)
			return
		}
	}
}

// IsFiltering reports whether the filter input is open.
func (f *SelectFormField) IsFiltering() bool {
	return f.list.SettingFilter()
}

func (f *SelectFormField) selectedIndex() int {
	c, ok := f.list.SelectedItem().(choice)
	if !ok || c.index < 0 || c.index >= len(f.choices) {
		return -1
	}
	return c.index
}
