package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/scribe/pkg/tuitest"
)

func TestConfirmModal(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.Msg
		confirmed bool
		cancelled bool
	}{
		{"y confirms", tuitest.KeyPress('y'), true, false},
		{"enter confirms", tuitest.KeyEnter(), true, false},
		{"n cancels", tuitest.KeyPress('n'), false, true},
		{"esc cancels", tea.KeyPressMsg(tea.Key{Code: tea.KeyEscape}), false, true},
		{"other keys ignored", tuitest.KeyPress('x'), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfirmModal("Delete script?")
			m, _ = m.Update(tt.key)
			assert.Equal(t, tt.confirmed, m.Confirmed())
			assert.Equal(t, tt.cancelled, m.Cancelled())
			assert.Equal(t, tt.confirmed || tt.cancelled, m.Done())
		})
	}
}

func TestConfirmModal_Overlay(t *testing.T) {
	m := NewConfirmModal("Delete script?")
	out := tuitest.StripANSI(m.Overlay("background", 60, 20))
	assert.Contains(t, out, "Delete script?")
	assert.Contains(t, out, "(y/n)")
}

func TestHelpDialog_View(t *testing.T) {
	h := NewHelpDialog("Keys", []HelpDialogSection{
		{Title: "Generator", Entries: []HelpEntry{{Key: "ctrl+g", Desc: "generate"}}},
		{Title: "History", Entries: []HelpEntry{{Key: "d", Desc: "delete"}}},
	})

	out := tuitest.StripANSI(h.View())
	assert.Contains(t, out, "Keys")
	assert.Contains(t, out, "Generator")
	assert.Contains(t, out, "ctrl+g")
	assert.Contains(t, out, "delete")
	assert.Contains(t, out, "esc/? close")
}
