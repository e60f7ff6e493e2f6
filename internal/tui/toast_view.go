package tui

import (
	"image/color"
	"math"
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/scribe/internal/core/styles"
	"github.com/colonyops/scribe/internal/core/toast"
)

const (
	toastPadX     = 2
	toastMinWidth = 16
	closeGlyph    = "✕"
)

// rect is a toast's position on screen in cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// onClose reports whether the cell hits the close icon. The hit area is one
// cell wider than the glyph on each side.
func (r rect) onClose(x, y int) bool {
	cx := r.x + r.w - toastPadX - 1
	return y == r.y+1 && x >= cx-1 && x <= cx+1
}

// toastLayout is the geometry and wrapped text of a notification.
type toastLayout struct {
	rect  rect
	lines []string
	textW int
}

func layoutToast(n toast.Notification, width, height int) toastLayout {
	w := n.Width
	if w <= 0 {
		w = toast.DefaultWidth
	}
	w = max(min(w, width-2), toastMinWidth)

	// icon + space on the left, space + close on the right
	textW := w - 2*toastPadX - 2
	if n.ShowCloseIcon {
		textW -= 2
	}
	textW = max(textW, 1)

	lines := strings.Split(ansi.Wrap(n.Message, textW, ""), "\n")

	// blank, text rows, blank, optional progress bar
	h := len(lines) + 2
	if n.ShowProgressBar {
		h++
	}

	x := max((width-w)/2, 0)
	var y int
	switch n.Position {
	case toast.PositionBottom:
		y = height - h - 1
	case toast.PositionCenter:
		y = (height - h) / 2
	default:
		y = 1
	}

	return toastLayout{
		rect:  rect{x: x, y: max(y, 0), w: w, h: h},
		lines: lines,
		textW: textW,
	}
}

func toastRect(n toast.Notification, width, height int) rect {
	return layoutToast(n, width, height).rect
}

func toastIcon(k toast.Kind) string {
	switch k {
	case toast.KindSuccess:
		return styles.IconSuccess
	case toast.KindWarning:
		return styles.IconWarning
	case toast.KindError:
		return styles.IconError
	default:
		return styles.IconInfo
	}
}

func toastAccent(k toast.Kind) color.Color {
	switch k {
	case toast.KindSuccess:
		return styles.ToastAccentSuccess
	case toast.KindWarning:
		return styles.ToastAccentWarning
	case toast.KindError:
		return styles.ToastAccentError
	default:
		return styles.ToastAccentInfo
	}
}

func toastColors(t toast.Theme) (bg, fg color.Color) {
	if t == toast.ThemeLight {
		return styles.ToastSurfaceLight, styles.ToastTextLight
	}
	return styles.ToastSurfaceDark, styles.ToastTextDark
}

// renderToast draws n at the layout's width. progress is the remaining
// fraction of the countdown.
func renderToast(n toast.Notification, l toastLayout, progress float64) string {
	bg, fg := toastColors(n.Theme)
	accent := toastAccent(n.Kind)

	paint := func(s string, c color.Color) string {
		return lipgloss.NewStyle().Background(bg).Foreground(c).Render(s)
	}

	w := l.rect.w
	pad := strings.Repeat(" ", toastPadX)
	blank := paint(strings.Repeat(" ", w), fg)

	rows := make([]string, 0, l.rect.h)
	rows = append(rows, blank)

	for i, line := range l.lines {
		line = ansi.Truncate(line, l.textW, "")
		fill := strings.Repeat(" ", max(l.textW-ansi.StringWidth(line), 0))

		var b strings.Builder
		b.WriteString(paint(pad, fg))
		if i == 0 {
			b.WriteString(paint(toastIcon(n.Kind)+" ", accent))
		} else {
			b.WriteString(paint("  ", fg))
		}
		b.WriteString(paint(line+fill, fg))
		if n.ShowCloseIcon {
			if i == 0 {
				b.WriteString(paint(" "+closeGlyph, fg))
			} else {
				b.WriteString(paint("  ", fg))
			}
		}
		b.WriteString(paint(pad, fg))
		rows = append(rows, b.String())
	}

	rows = append(rows, blank)

	if n.ShowProgressBar {
		progress = min(max(progress, 0), 1)
		filled := int(math.Round(progress * float64(w)))
		rows = append(rows,
			paint(strings.Repeat("━", filled), accent)+
				paint(strings.Repeat("━", w-filled), styles.ToastTrack))
	}

	return strings.Join(rows, "\n")
}

// ToastView renders the engine's visible notification over the screen.
type ToastView struct {
	engine *toast.Engine
}

func NewToastView(engine *toast.Engine) *ToastView {
	return &ToastView{engine: engine}
}

// View renders the visible notification or "".
func (v *ToastView) View(width, height int) string {
	n, ok := v.engine.Current()
	if !ok {
		return ""
	}
	return renderToast(n, layoutToast(n, width, height), v.engine.Progress())
}

// Overlay composites the notification over background at its position.
func (v *ToastView) Overlay(background string, width, height int) string {
	n, ok := v.engine.Current()
	if !ok {
		return background
	}

	l := layoutToast(n, width, height)
	content := renderToast(n, l, v.engine.Progress())

	bgLayer := lipgloss.NewLayer(background)
	toastLayer := lipgloss.NewLayer(content).X(l.rect.x).Y(l.rect.y).Z(2)

	return lipgloss.NewCompositor(bgLayer, toastLayer).Render()
}
