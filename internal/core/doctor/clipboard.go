package doctor

import (
	"context"

	"github.com/atotto/clipboard"
)

// clipboardUnsupported reports whether no system clipboard tool was found.
// Package-level variable to allow test overrides.
var clipboardUnsupported = func() bool { return clipboard.Unsupported }

// ClipboardCheck reports how copied scripts reach the clipboard.
type ClipboardCheck struct{}

// NewClipboardCheck creates a clipboard check.
func NewClipboardCheck() *ClipboardCheck {
	return &ClipboardCheck{}
}

func (c *ClipboardCheck) Name() string {
	return "Clipboard"
}

func (c *ClipboardCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if clipboardUnsupported() {
		result.Items = append(result.Items, CheckItem{
			Label:  "system clipboard",
			Status: StatusWarn,
			Detail: "no clipboard tool found, copying falls back to the terminal (OSC 52)",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "system clipboard",
		Status: StatusPass,
	})
	return result
}
