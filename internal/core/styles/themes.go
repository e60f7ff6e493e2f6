package styles

import (
	"image/color"
	"maps"
	"slices"

	lipgloss "charm.land/lipgloss/v2"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the set of semantic colors a theme provides.
type Palette struct {
	// Light selects glamour's light base style for markdown.
	Light      bool
	Primary    color.Color
	Secondary  color.Color
	Foreground color.Color
	Muted      color.Color
	Background color.Color
	Surface    color.Color
	Success    color.Color
	Warning    color.Color
	Error      color.Color
}

// DefaultTheme is used when the config names no theme.
const DefaultTheme = "scribe"

// palette builds a Palette from hex strings in field order.
func palette(light bool, primary, secondary, fg, muted, bg, surface, ok, warn, bad string) Palette {
	return Palette{
		Light:      light,
		Primary:    lipgloss.Color(primary),
		Secondary:  lipgloss.Color(secondary),
		Foreground: lipgloss.Color(fg),
		Muted:      lipgloss.Color(muted),
		Background: lipgloss.Color(bg),
		Surface:    lipgloss.Color(surface),
		Success:    lipgloss.Color(ok),
		Warning:    lipgloss.Color(warn),
		Error:      lipgloss.Color(bad),
	}
}

var themes = map[string]Palette{
	"scribe":           palette(false, "#10a37f", "#19c37d", "#ececf1", "#8e8ea0", "#202123", "#343541", "#10a37f", "#eab308", "#ef4444"),
	"scribe-light":     palette(true, "#0e8f6f", "#10a37f", "#202123", "#6e6e80", "#ffffff", "#ececf1", "#0e8f6f", "#b45309", "#dc2626"),
	"tokyo-night":      palette(false, "#7aa2f7", "#7dcfff", "#c0caf5", "#565f89", "#1a1b26", "#3b4261", "#9ece6a", "#e0af68", "#f7768e"),
	"gruvbox":          palette(false, "#83a598", "#8ec07c", "#ebdbb2", "#665c54", "#282828", "#3c3836", "#b8bb26", "#fabd2f", "#fb4934"),
	"catppuccin":       palette(false, "#89b4fa", "#94e2d5", "#cdd6f4", "#6c7086", "#1e1e2e", "#313244", "#a6e3a1", "#f9e2af", "#f38ba8"),
	"catppuccin-latte": palette(true, "#1e66f5", "#179299", "#4c4f69", "#9ca0b0", "#eff1f5", "#ccd0da", "#40a02b", "#df8e1d", "#d20f39"),
}

// ThemeNames returns the built-in theme names in sorted order.
func ThemeNames() []string {
	return slices.Sorted(maps.Keys(themes))
}

// GetPalette looks up a built-in theme.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// hex converts c to a "#rrggbb" pointer as glamour expects, or nil.
func hex(c color.Color) *string {
	if c == nil {
		return nil
	}
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return nil
	}
	s := cc.Hex()
	return &s
}

// GlamourStyle adapts glamour's dark or light style to the active palette so
// rendered scripts match the rest of the UI.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	if CurrentPalette.Light {
		cfg = glamourstyles.LightStyleConfig
	}

	fg, primary, secondary, muted := hex(ColorForeground), hex(ColorPrimary), hex(ColorSecondary), hex(ColorMuted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg
	cfg.Table.Color = fg
	cfg.Item.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = hex(ColorSurface)
	for _, h := range []*glamouransi.StyleBlock{&cfg.H2, &cfg.H3, &cfg.H4, &cfg.H5, &cfg.H6} {
		h.Color = primary
	}

	cfg.Emph.Color = secondary
	cfg.Strong.Color = primary
	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary
	cfg.Code.Color = secondary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted
	cfg.CodeBlock.Color = muted

	return cfg
}
