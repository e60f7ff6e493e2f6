package styles

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders md with the active theme, wrapped at width.
func RenderMarkdown(md string, width int) (string, error) {
	style := GlamourStyle()
	noMargin := uint(0)
	style.Document.Margin = &noMargin

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return "", err
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
