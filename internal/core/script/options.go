package script

import (
	"fmt"
	"strings"
)

// OptionKey names a presentation option of a script.
type OptionKey int

const (
	Audience OptionKey = iota
	Age
	Style
	Language
	Duration
	Memes
	Platform

	numOptionKeys
)

type optionDef struct {
	name    string
	label   string
	choices []string
}

var optionDefs = [numOptionKeys]optionDef{
	Audience: {"audience", "Target Audience", []string{"General", "Beginners", "Professionals", "Students", "Entrepreneurs"}},
	Age:      {"age", "Age Group", []string{"All", "Kids", "Teens", "Adults", "Seniors", "Parents"}},
	Style:    {"style", "Style", []string{"Casual", "Professional", "Informal", "Humorous", "Serious", "Funny"}},
	Language: {"language", "Language", []string{
		"English", "Spanish", "French", "German", "Italian", "Portuguese", "Russian", "Turkish",
		"Hindi", "Hinglish", "Arabic", "Japanese", "Korean", "Chinese", "Other",
	}},
	Duration: {"duration", "Duration (minutes)", []string{"1-5", "5-10", "10-15"}},
	Memes:    {"memes", "Include Memes", []string{"Yes", "No"}},
	Platform: {"platform", "Platform", []string{"YouTube", "YouTube Shorts"}},
}

// OptionKeys returns every key in display order.
func OptionKeys() []OptionKey {
	keys := make([]OptionKey, numOptionKeys)
	for i := range keys {
		keys[i] = OptionKey(i)
	}
	return keys
}

// ParseOptionKey resolves a key by name.
func ParseOptionKey(name string) (OptionKey, error) {
	for i, d := range optionDefs {
		if strings.EqualFold(d.name, name) {
			return OptionKey(i), nil
		}
	}
	return 0, fmt.Errorf("unknown option %q", name)
}

func (k OptionKey) valid() bool {
	return k >= 0 && k < numOptionKeys
}

func (k OptionKey) String() string {
	if !k.valid() {
		return fmt.Sprintf("OptionKey(%d)", int(k))
	}
	return optionDefs[k].name
}

// Label is the human-readable name of the option.
func (k OptionKey) Label() string {
	if !k.valid() {
		return k.String()
	}
	return optionDefs[k].label
}

// Choices returns the values the option can take.
func (k OptionKey) Choices() []string {
	if !k.valid() {
		return nil
	}
	return optionDefs[k].choices
}

// Options is the selected value of every option. The zero value selects the
// first choice of each.
type Options struct {
	selected [numOptionKeys]int
}

// Selected returns the selected index for k.
func (o Options) Selected(k OptionKey) int {
	if !k.valid() {
		return 0
	}
	return o.selected[k]
}

// Value returns the selected choice for k.
func (o Options) Value(k OptionKey) string {
	if !k.valid() {
		return ""
	}
	return optionDefs[k].choices[o.selected[k]]
}

// Select sets k to the choice at index.
func (o *Options) Select(k OptionKey, index int) error {
	if !k.valid() {
		return fmt.Errorf("unknown option %d", int(k))
	}
	if index < 0 || index >= len(optionDefs[k].choices) {
		return fmt.Errorf("%s: index %d out of range", k, index)
	}
	o.selected[k] = index
	return nil
}

// SelectValue sets k to the choice matching value, ignoring case.
func (o *Options) SelectValue(k OptionKey, value string) error {
	for i, c := range k.Choices() {
		if strings.EqualFold(c, strings.TrimSpace(value)) {
			o.selected[k] = i
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %s", k, value, strings.Join(k.Choices(), ", "))
}

// Cycle moves k to the next choice, wrapping around.
func (o *Options) Cycle(k OptionKey, delta int) {
	if !k.valid() {
		return
	}
	n := len(optionDefs[k].choices)
	o.selected[k] = ((o.selected[k]+delta)%n + n) % n
}

// Values returns the selected choices keyed by option name.
func (o Options) Values() map[string]string {
	out := make(map[string]string, numOptionKeys)
	for _, k := range OptionKeys() {
		out[k.String()] = o.Value(k)
	}
	return out
}

// OptionsFromValues rebuilds Options from Values output. Unknown keys and
// values are ignored.
func OptionsFromValues(values map[string]string) Options {
	var o Options
	for name, v := range values {
		k, err := ParseOptionKey(name)
		if err != nil {
			continue
		}
		_ = o.SelectValue(k, v)
	}
	return o
}
