// Package styles provides shared lipgloss v2 styles for CLI and TUI components.
package styles

import (
	"image/color"

	lipgloss "charm.land/lipgloss/v2"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Exported color aliases for convenience.
var (
	ColorPrimary    color.Color
	ColorSecondary  color.Color
	ColorForeground color.Color
	ColorMuted      color.Color
	ColorBackground color.Color
	ColorSurface    color.Color
	ColorSuccess    color.Color
	ColorWarning    color.Color
	ColorError      color.Color
)

// Toast colors do not follow the app theme; a toast picks its own light or
// dark surface.
var (
	ToastAccentInfo    color.Color = lipgloss.Color("#10a37f")
	ToastAccentSuccess color.Color = lipgloss.Color("#10a37f")
	ToastAccentWarning color.Color = lipgloss.Color("#eab308")
	ToastAccentError   color.Color = lipgloss.Color("#ef4444")

	ToastSurfaceDark  color.Color = lipgloss.Color("#343541")
	ToastTextDark     color.Color = lipgloss.Color("#ffffff")
	ToastSurfaceLight color.Color = lipgloss.Color("#ffffff")
	ToastTextLight    color.Color = lipgloss.Color("#000000")
	ToastTrack        color.Color = lipgloss.Color("#4b5563")
)

// Style exports.
var (
	// CLI styles.
	CommandHeaderStyle lipgloss.Style
	CommandStyle       lipgloss.Style
	DividerStyle       lipgloss.Style

	// TUI shared styles.
	AppTitleStyle    lipgloss.Style
	AppSubtitleStyle lipgloss.Style
	HeaderStyle      lipgloss.Style
	StatusBarStyle   lipgloss.Style
	HelpStyle        lipgloss.Style
	MutedStyle       lipgloss.Style
	LinkStyle        lipgloss.Style
	SuccessTextStyle lipgloss.Style
	WarningTextStyle lipgloss.Style
	ErrorTextStyle   lipgloss.Style

	PanelStyle lipgloss.Style

	ButtonStyle         lipgloss.Style
	ButtonFocusedStyle  lipgloss.Style
	ButtonDisabledStyle lipgloss.Style

	ChipStyle         lipgloss.Style
	ChipSelectedStyle lipgloss.Style

	ListItemStyle         lipgloss.Style
	ListItemSelectedStyle lipgloss.Style
	ListMetaStyle         lipgloss.Style

	FormTitleStyle        lipgloss.Style
	FormTitleBlurredStyle lipgloss.Style
	FormFieldStyle        lipgloss.Style
	FormFieldFocusedStyle lipgloss.Style
	FormErrorStyle        lipgloss.Style
	FormHelpStyle         lipgloss.Style

	StrengthMetStyle   lipgloss.Style
	StrengthUnmetStyle lipgloss.Style

	TextForegroundStyle     lipgloss.Style
	TextForegroundBoldStyle lipgloss.Style
	TextPrimaryStyle        lipgloss.Style
	TextPrimaryBoldStyle    lipgloss.Style
	TextMutedStyle          lipgloss.Style

	SelectFieldItemSelectedStyle lipgloss.Style

	ModalStyle          lipgloss.Style
	ModalTitleStyle     lipgloss.Style
	ModalHelpStyle      lipgloss.Style
	ConfirmMessageStyle lipgloss.Style

	HelpDialogModalStyle   lipgloss.Style
	HelpDialogSectionStyle lipgloss.Style
	HelpDialogHelpStyle    lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorForeground = p.Foreground
	ColorMuted = p.Muted
	ColorBackground = p.Background
	ColorSurface = p.Surface
	ColorSuccess = p.Success
	ColorWarning = p.Warning
	ColorError = p.Error

	CommandHeaderStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	CommandStyle = lipgloss.NewStyle().
		Foreground(ColorForeground)
	DividerStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	AppTitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	AppSubtitleStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)
	HeaderStyle = lipgloss.NewStyle().
		Foreground(ColorForeground).
		Bold(true).
		MarginBottom(1)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Background(ColorSurface).
		Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
	MutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	LinkStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Underline(true)
	SuccessTextStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningTextStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(ColorError)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSurface).
		Padding(1, 2)

	ButtonStyle = lipgloss.NewStyle().
		Padding(0, 2).
		Background(ColorSurface).
		Foreground(ColorForeground)
	ButtonFocusedStyle = lipgloss.NewStyle().
		Padding(0, 2).
		Background(ColorPrimary).
		Foreground(ColorBackground).
		Bold(true)
	ButtonDisabledStyle = lipgloss.NewStyle().
		Padding(0, 2).
		Background(ColorSurface).
		Foreground(ColorMuted).
		Faint(true)

	ChipStyle = lipgloss.NewStyle().
		Padding(0, 1).
		MarginRight(1).
		Foreground(ColorMuted).
		Background(ColorSurface)
	ChipSelectedStyle = lipgloss.NewStyle().
		Padding(0, 1).
		MarginRight(1).
		Foreground(ColorBackground).
		Background(ColorPrimary).
		Bold(true)

	ListItemStyle = lipgloss.NewStyle().
		Foreground(ColorForeground).
		PaddingLeft(2)
	ListItemSelectedStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(ColorPrimary).
		PaddingLeft(1)
	ListMetaStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		PaddingLeft(2)

	FormTitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	FormTitleBlurredStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
	FormFieldStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(ColorMuted).
		PaddingLeft(1)
	FormFieldFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(ColorPrimary).
		PaddingLeft(1)
	FormErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError)
	FormHelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)

	StrengthMetStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	StrengthUnmetStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	TextForegroundStyle = lipgloss.NewStyle().Foreground(ColorForeground)
	TextForegroundBoldStyle = lipgloss.NewStyle().Foreground(ColorForeground).Bold(true)
	TextPrimaryStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	TextPrimaryBoldStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	TextMutedStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	SelectFieldItemSelectedStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)
	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
	ConfirmMessageStyle = lipgloss.NewStyle().
		Foreground(ColorForeground).
		MarginBottom(1)

	HelpDialogModalStyle = ModalStyle
	HelpDialogSectionStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)
	HelpDialogHelpStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		MarginTop(1)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}
