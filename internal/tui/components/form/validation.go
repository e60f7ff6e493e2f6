package form

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// FieldValidation holds runtime validation rules for a text field.
type FieldValidation struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	// Message replaces the pattern mismatch text when set.
	Message string
}

// ValidateText checks a text value against the validation rules. Leading and
// trailing whitespace is ignored.
func (v FieldValidation) ValidateText(value string) string {
	value = strings.TrimSpace(value)
	if v.Required && value == "" {
		return "required"
	}
	if value == "" {
		return ""
	}
	n := utf8.RuneCountInString(value)
	if v.MinLength > 0 && n < v.MinLength {
		return fmt.Sprintf("minimum %d characters", v.MinLength)
	}
	if v.MaxLength > 0 && n > v.MaxLength {
		return fmt.Sprintf("maximum %d characters", v.MaxLength)
	}
	if v.Pattern != nil && !v.Pattern.MatchString(value) {
		if v.Message != "" {
			return v.Message
		}
		return fmt.Sprintf("must match pattern: %s", v.Pattern.String())
	}
	return ""
}
