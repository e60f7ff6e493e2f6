// Package components provides reusable TUI components.
package components

import (
	"strings"

	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

// HelpEntry is one key binding shown in the help dialog.
type HelpEntry struct {
	Key  string
	Desc string
}

// HelpDialogSection groups the bindings of one screen.
type HelpDialogSection struct {
	Title   string
	Entries []HelpEntry
}

// HelpDialog lists the key bindings of the current screen and the global ones.
type HelpDialog struct {
	title    string
	sections []HelpDialogSection
}

// NewHelpDialog creates a help dialog. Sections without entries are skipped.
func NewHelpDialog(title string, sections []HelpDialogSection) *HelpDialog {
	kept := make([]HelpDialogSection, 0, len(sections))
	for _, s := range sections {
		if len(s.Entries) > 0 {
			kept = append(kept, s)
		}
	}
	return &HelpDialog{title: title, sections: kept}
}

// View renders the dialog box.
func (h *HelpDialog) View() string {
	keyWidth, rowWidth := h.columns()
	rule := styles.TextMutedStyle.Render(strings.Repeat("─", rowWidth))

	rows := []string{styles.TextForegroundBoldStyle.Render(h.title)}
	for _, section := range h.sections {
		rows = append(rows, "")
		if section.Title != "" {
			rows = append(rows, styles.HelpDialogSectionStyle.Render(section.Title), rule)
		}
		for _, e := range section.Entries {
			pad := strings.Repeat(" ", keyWidth-lipgloss.Width(e.Key))
			rows = append(rows,
				styles.TextPrimaryBoldStyle.Render(e.Key+pad)+styles.TextForegroundStyle.Render(e.Desc))
		}
	}
	rows = append(rows, styles.HelpDialogHelpStyle.Render("esc/? close"))

	return styles.HelpDialogModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Overlay renders the dialog centred over background.
func (h *HelpDialog) Overlay(background string, width, height int) string {
	return overlayCentered(background, h.View(), width, height)
}

// columns returns the key column width, with a two cell gutter, and the width
// of the widest row.
func (h *HelpDialog) columns() (int, int) {
	keyWidth := 0
	for _, s := range h.sections {
		for _, e := range s.Entries {
			keyWidth = max(keyWidth, lipgloss.Width(e.Key))
		}
	}
	keyWidth += 2

	rowWidth := lipgloss.Width(h.title)
	for _, s := range h.sections {
		rowWidth = max(rowWidth, lipgloss.Width(s.Title))
		for _, e := range s.Entries {
			rowWidth = max(rowWidth, keyWidth+lipgloss.Width(e.Desc))
		}
	}
	return keyWidth, rowWidth
}
