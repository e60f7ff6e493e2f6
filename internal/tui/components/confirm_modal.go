package components

import (
	tea "charm.land/bubbletea/v2"
	lipgloss "charm.land/lipgloss/v2"

	"github.com/colonyops/scribe/internal/core/styles"
)

// ConfirmModal is a simple yes/no confirmation dialog.
type ConfirmModal struct {
	message   string
	confirmed bool
	cancelled bool
}

// NewConfirmModal creates a new confirmation modal.
func NewConfirmModal(message string) ConfirmModal {
	return ConfirmModal{
		message: message,
	}
}

// Update handles input for the confirmation modal.
func (m ConfirmModal) Update(msg tea.Msg) (ConfirmModal, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
	case "n", "N", "esc":
		m.cancelled = true
	}

	return m, nil
}

// View renders the confirmation modal.
func (m ConfirmModal) View() string {
	message := styles.ConfirmMessageStyle.Render(m.message)
	prompt := styles.TextPrimaryBoldStyle.Render("Continue? (y/n)")

	return styles.ModalStyle.Render(message + "\n" + prompt)
}

// Overlay renders the modal centered over the background.
func (m ConfirmModal) Overlay(background string, width, height int) string {
	return overlayCentered(background, m.View(), width, height)
}

// Confirmed returns true if user confirmed.
func (m ConfirmModal) Confirmed() bool {
	return m.confirmed
}

// Cancelled returns true if user cancelled.
func (m ConfirmModal) Cancelled() bool {
	return m.cancelled
}

// Done reports whether the user answered either way.
func (m ConfirmModal) Done() bool {
	return m.confirmed || m.cancelled
}

func overlayCentered(background, modal string, width, height int) string {
	bgLayer := lipgloss.NewLayer(background)
	modalLayer := lipgloss.NewLayer(modal)

	modalW := lipgloss.Width(modal)
	modalH := lipgloss.Height(modal)
	modalLayer.X(max((width-modalW)/2, 0)).Y(max((height-modalH)/2, 0)).Z(1)

	return lipgloss.NewCompositor(bgLayer, modalLayer).Render()
}
