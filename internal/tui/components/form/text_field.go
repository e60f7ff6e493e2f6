package form

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

// TextField is a single-line text input form field.
type TextField struct {
	input   textinput.Model
	label   string
	focused bool
	errMsg  string

	Validation FieldValidation
}

// NewTextField creates a new single-line text input field.
func NewTextField(label, placeholder, defaultVal string) *TextField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.SetWidth(40)

	if defaultVal != "" {
		ti.SetValue(defaultVal)
	}

	inputStyles := textinput.DefaultStyles(true)
	inputStyles.Cursor.Color = styles.ColorPrimary
	inputStyles.Focused.Placeholder = lipgloss.NewStyle().Foreground(styles.ColorMuted)
	inputStyles.Blurred.Placeholder = lipgloss.NewStyle().Foreground(styles.ColorMuted)
	ti.SetStyles(inputStyles)

	return &TextField{
		input: ti,
		label: label,
	}
}

// NewPasswordField creates a text field that masks its input.
func NewPasswordField(label, placeholder string) *TextField {
	f := NewTextField(label, placeholder, "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// WithCharLimit caps the number of characters accepted.
func (f *TextField) WithCharLimit(n int) *TextField {
	f.input.CharLimit = n
	return f
}

// WithValidation attaches validation rules checked by Validate.
func (f *TextField) WithValidation(v FieldValidation) *TextField {
	f.Validation = v
	return f
}

func (f *TextField) Update(msg tea.Msg) (Field, tea.Cmd) {
	if !f.focused {
		return f, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	if f.errMsg != "" {
		f.errMsg = f.Validation.ValidateText(f.input.Value())
	}
	return f, cmd
}

func (f *TextField) View() string {
	titleStyle := styles.TextMutedStyle
	if f.focused {
		titleStyle = styles.FormTitleStyle
	}
	title := titleStyle.Render(f.label)

	parts := []string{title, f.input.View()}
	if f.errMsg != "" {
		parts = append(parts, styles.FormErrorStyle.Render(f.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	borderStyle := styles.FormFieldStyle
	if f.focused {
		borderStyle = styles.FormFieldFocusedStyle
	}

	return borderStyle.Render(content)
}

// Validate runs the field's rules, records the message for display and
// reports whether the value passed.
func (f *TextField) Validate() bool {
	f.errMsg = f.Validation.ValidateText(f.input.Value())
	return f.errMsg == ""
}

// Error returns the last validation message.
func (f *TextField) Error() string { return f.errMsg }

// SetValue replaces the field contents.
func (f *TextField) SetValue(v string) {
	f.input.SetValue(v)
	f.input.CursorEnd()
}

// SetWidth sets the visible input width.
func (f *TextField) SetWidth(w int) { f.input.SetWidth(w) }

func (f *TextField) Focus() tea.Cmd {
	f.focused = true
	return f.input.Focus()
}

func (f *TextField) Blur() {
	f.focused = false
	f.input.Blur()
}

func (f *TextField) Focused() bool  { return f.focused }
func (f *TextField) Value() any     { return f.input.Value() }
func (f *TextField) String() string { return f.input.Value() }
func (f *TextField) Label() string  { return f.label }
