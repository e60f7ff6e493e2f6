package form

import (
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"
	"github.com/colonyops/scribe/internal/core/styles"
)

// filterer is an optional interface for fields that support list filtering.
type filterer interface {
	IsFiltering() bool
}

// validator is implemented by fields that check their own value.
type validator interface {
	Validate() bool
}

// DefaultHelp is the key legend rendered under the fields.
const DefaultHelp = "tab: next  shift+tab: prev  enter: submit  esc: cancel"

// Dialog is a form container that manages focus cycling, submission, and
// cancellation across a set of form fields.
type Dialog struct {
	fields       []Field
	variables    []string // parallel slice: variable name for each field
	focusedField int
	submitted    bool
	cancelled    bool
	Title        string
	Help         string
	// Compact drops the blank line between fields.
	Compact bool
}

// NewDialog creates a form dialog with the given fields and variable names.
// The first field is focused automatically.
func NewDialog(title string, fields []Field, variables []string) *Dialog {
	d := &Dialog{
		fields:    fields,
		variables: variables,
		Title:     title,
		Help:      DefaultHelp,
	}
	if len(fields) > 0 {
		fields[0].Focus()
	}
	return d
}

// Update handles key input for the dialog, managing focus cycling and submit/cancel.
func (d *Dialog) Update(msg tea.Msg) (*Dialog, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return d.updateFocusedField(msg)
	}

	key := keyMsg.String()

	switch key {
	case "tab":
		return d.advanceFocus()
	case "shift+tab":
		return d.retreatFocus()
	case "enter":
		if d.isFocusedFieldFiltering() {
			return d.updateFocusedField(msg)
		}
		return d.advanceFocus()
	case "esc":
		if d.isFocusedFieldFiltering() {
			// Let the field handle esc to exit filter mode
			return d.updateFocusedField(msg)
		}
		d.cancelled = true
		return d, nil
	}

	return d.updateFocusedField(msg)
}

// View renders all fields vertically with spacing and help text.
func (d *Dialog) View() string {
	var parts []string
	for i, field := range d.fields {
		if i > 0 && !d.Compact {
			parts = append(parts, "")
		}
		parts = append(parts, field.View())
	}

	if d.Help != "" {
		parts = append(parts, "", styles.TextMutedStyle.Render(d.Help))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// FormValues returns a map of variable names to field values.
func (d *Dialog) FormValues() map[string]any {
	result := make(map[string]any, len(d.fields))
	for i, field := range d.fields {
		result[d.variables[i]] = field.Value()
	}
	return result
}

// String returns the value of the named field as a string. Unknown names
// return "".
func (d *Dialog) String(name string) string {
	for i, v := range d.variables {
		if v == name {
			s, _ := d.fields[i].Value().(string)
			return s
		}
	}
	return ""
}

// Field returns the named field or nil.
func (d *Dialog) Field(name string) Field {
	for i, v := range d.variables {
		if v == name {
			return d.fields[i]
		}
	}
	return nil
}

// Submitted returns whether the form was submitted.
func (d *Dialog) Submitted() bool { return d.submitted }

// Cancelled returns whether the form was cancelled.
func (d *Dialog) Cancelled() bool { return d.cancelled }

// Reset clears the submitted and cancelled flags so the dialog can be
// submitted again, keeping field values and focus.
func (d *Dialog) Reset() {
	d.submitted = false
	d.cancelled = false
}

// Focused returns the index of the focused field.
func (d *Dialog) Focused() int { return d.focusedField }

// FocusField moves focus to the field at index i.
func (d *Dialog) FocusField(i int) tea.Cmd {
	if i < 0 || i >= len(d.fields) || i == d.focusedField {
		return nil
	}
	d.fields[d.focusedField].Blur()
	d.focusedField = i
	return d.fields[i].Focus()
}

// Validate runs every self-validating field and focuses the first failure.
func (d *Dialog) Validate() bool {
	first := -1
	for i, f := range d.fields {
		if v, ok := f.(validator); ok && !v.Validate() && first < 0 {
			first = i
		}
	}
	if first >= 0 {
		d.FocusField(first)
		return false
	}
	return true
}

func (d *Dialog) advanceFocus() (*Dialog, tea.Cmd) {
	if len(d.fields) == 0 {
		return d, nil
	}

	next := d.focusedField + 1
	if next >= len(d.fields) {
		// Past the last field: submit
		d.submitted = d.Validate()
		return d, nil
	}

	d.fields[d.focusedField].Blur()
	d.focusedField = next
	cmd := d.fields[d.focusedField].Focus()
	return d, cmd
}

func (d *Dialog) retreatFocus() (*Dialog, tea.Cmd) {
	if len(d.fields) == 0 || d.focusedField == 0 {
		return d, nil
	}

	d.fields[d.focusedField].Blur()
	d.focusedField--
	cmd := d.fields[d.focusedField].Focus()
	return d, cmd
}

func (d *Dialog) updateFocusedField(msg tea.Msg) (*Dialog, tea.Cmd) {
	if len(d.fields) == 0 {
		return d, nil
	}

	var cmd tea.Cmd
	d.fields[d.focusedField], cmd = d.fields[d.focusedField].Update(msg)
	return d, cmd
}

func (d *Dialog) isFocusedFieldFiltering() bool {
	if len(d.fields) == 0 {
		return false
	}
	if f, ok := d.fields[d.focusedField].(filterer); ok {
		return f.IsFiltering()
	}
	return false
}
