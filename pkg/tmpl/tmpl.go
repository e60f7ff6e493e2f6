// Package tmpl provides text template rendering for prompts.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"trim":  strings.TrimSpace,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
}

// Template is a parsed template that can be rendered many times.
type Template struct {
	t *template.Template
}

// Parse compiles text. Rendering fails on references to undefined keys.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{t: t}, nil
}

// MustParse is Parse for package-level templates.
func MustParse(name, text string) *Template {
	t, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template with data.
func (t *Template) Render(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes a template string with the given data.
//
// Available template functions:
//   - join: Join string slice with separator (e.g., join .Points ", ")
//   - trim, lower, upper: string helpers
func Render(text string, data any) (string, error) {
	t, err := Parse("", text)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}
