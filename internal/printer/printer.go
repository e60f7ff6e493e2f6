// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human-oriented status output. Machine-readable output goes
// to the command's writer instead.
type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext returns ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(s string) {
	_, _ = lipgloss.Fprintln(p.w, s)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessTextStyle.Render(styles.IconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.TextPrimaryStyle.Render(styles.IconInfo) + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarningTextStyle.Render(styles.IconWarning) + " " + fmt.Sprintf(format, args...))
}

func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorTextStyle.Render(styles.IconError) + " " + fmt.Sprintf(format, args...))
}

// Section writes a bold heading.
func (p *Printer) Section(title string) {
	p.line(styles.CommandHeaderStyle.Render(title))
}

// CheckItem, WarnItem and FailItem write an indented result row.
func (p *Printer) CheckItem(label, detail string) {
	p.item(styles.SuccessTextStyle.Render(styles.IconSuccess), label, detail)
}

func (p *Printer) WarnItem(label, detail string) {
	p.item(styles.WarningTextStyle.Render(styles.IconWarning), label, detail)
}

func (p *Printer) FailItem(label, detail string) {
	p.item(styles.ErrorTextStyle.Render(styles.IconError), label, detail)
}

func (p *Printer) item(icon, label, detail string) {
	s := "  " + icon + " " + label
	if detail != "" {
		s += styles.MutedStyle.Render(": " + detail)
	}
	p.line(s)
}
