package tui

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/scribe/internal/core/toast"
	"github.com/colonyops/scribe/pkg/tuitest"
)

const (
	screenW = 80
	screenH = 24
)

func TestToastController_Listen_delivers_engine_events(t *testing.T) {
	engine, _, _ := newTestEngine()
	c := NewToastController(engine)

	engine.Info("hello")

	msg := c.Listen()()
	ev, ok := msg.(toastChangedMsg)
	require.True(t, ok)
	assert.Equal(t, toast.EventShown, ev.Type)
	assert.Equal(t, "hello", ev.Notification.Message)
}

func TestToastController_publish_never_blocks(t *testing.T) {
	engine, _, _ := newTestEngine()
	c := NewToastController(engine)

	done := make(chan struct{})
	go func() {
		for range toastEventBuffer * 2 {
			engine.Info("spam")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine blocked on a full event buffer")
	}
	assert.Len(t, c.events, toastEventBuffer)
}

func TestToastController_HandleEvent_starts_frames_once(t *testing.T) {
	engine, _, _ := newTestEngine()
	c := NewToastController(engine)

	engine.Info("hello")
	ev := c.Listen()().(toastChangedMsg)

	require.NotNil(t, c.HandleEvent(ev))
	assert.True(t, c.Ticking())

	// a second event keeps the single frame chain
	engine.Info("again")
	ev = c.Listen()().(toastChangedMsg)
	c.HandleEvent(ev)
	assert.True(t, c.Ticking())
}

func TestToastController_no_frames_without_progress_bar(t *testing.T) {
	engine, _, _ := newTestEngine()
	off := false
	engine.Configure(toast.ConfigPatch{ShowProgressBar: &off})
	c := NewToastController(engine)

	engine.Info("hello")
	c.HandleEvent(c.Listen()().(toastChangedMsg))

	assert.False(t, c.Ticking())
}

func TestToastController_HandleFrame_stops_when_paused_or_hidden(t *testing.T) {
	tests := []struct {
		name string
		act  func(e *toast.Engine)
	}{
		{"paused", func(e *toast.Engine) { e.Pause() }},
		{"hidden", func(e *toast.Engine) { e.Hide() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := newTestEngine()
			c := NewToastController(engine)

			engine.Info("hello")
			c.HandleEvent(c.Listen()().(toastChangedMsg))
			require.True(t, c.Ticking())
			require.NotNil(t, c.HandleFrame())

			tt.act(engine)

			assert.Nil(t, c.HandleFrame())
			assert.False(t, c.Ticking())
		})
	}
}

func TestToastController_HandleMouse(t *testing.T) {
	t.Run("close icon closes", func(t *testing.T) {
		engine, _, _ := newTestEngine()
		c := NewToastController(engine)
		engine.Info("hello")

		r := toastRect(mustCurrent(t, engine), screenW, screenH)
		closeX := r.x + r.w - toastPadX - 1

		consumed := c.HandleMouse(tuitest.Click(closeX, r.y+1).(tea.MouseMsg), screenW, screenH)

		assert.True(t, consumed)
		assert.False(t, engine.Visible())
	})

	t.Run("press pauses and release resumes", func(t *testing.T) {
		engine, now, _ := newTestEngine()
		c := NewToastController(engine)
		engine.Info("hello")
		*now = now.Add(1500 * time.Millisecond)

		r := toastRect(mustCurrent(t, engine), screenW, screenH)
		x, y := r.x+4, r.y+1

		assert.True(t, c.HandleMouse(tuitest.Click(x, y).(tea.MouseMsg), screenW, screenH))
		assert.True(t, engine.Paused())
		assert.False(t, engine.TimerPending())

		*now = now.Add(10 * time.Second)
		assert.True(t, c.HandleMouse(tuitest.Release(x, y).(tea.MouseMsg), screenW, screenH))
		assert.False(t, engine.Paused())

		deadline, ok := engine.Deadline()
		require.True(t, ok)
		assert.Equal(t, 1500*time.Millisecond, deadline.Sub(*now))
	})

	t.Run("drag past threshold swipes", func(t *testing.T) {
		engine, _, _ := newTestEngine()
		c := NewToastController(engine)
		engine.Info("hello")

		var reasons []toast.Reason
		engine.Subscribe(func(ev toast.Event) {
			if ev.Type == toast.EventHidden {
				reasons = append(reasons, ev.Reason)
			}
		})

		r := toastRect(mustCurrent(t, engine), screenW, screenH)
		x, y := r.x+4, r.y+1

		c.HandleMouse(tuitest.Click(x, y).(tea.MouseMsg), screenW, screenH)
		c.HandleMouse(tuitest.Drag(x+1, y).(tea.MouseMsg), screenW, screenH)
		assert.True(t, engine.Visible())

		c.HandleMouse(tuitest.Drag(x+swipeThreshold, y).(tea.MouseMsg), screenW, screenH)
		assert.False(t, engine.Visible())
		assert.Equal(t, []toast.Reason{toast.ReasonSwiped}, reasons)

		// the release after a swipe is not consumed
		assert.False(t, c.HandleMouse(tuitest.Release(x+swipeThreshold, y).(tea.MouseMsg), screenW, screenH))
	})

	t.Run("click outside passes through", func(t *testing.T) {
		engine, _, _ := newTestEngine()
		c := NewToastController(engine)
		engine.Info("hello")

		assert.False(t, c.HandleMouse(tuitest.Click(0, screenH-1).(tea.MouseMsg), screenW, screenH))
		assert.True(t, engine.Visible())
		assert.False(t, engine.Paused())
	})

	t.Run("nothing visible", func(t *testing.T) {
		engine, _, _ := newTestEngine()
		c := NewToastController(engine)

		assert.False(t, c.HandleMouse(tuitest.Click(40, 2).(tea.MouseMsg), screenW, screenH))
		assert.False(t, c.HandleMouse(tuitest.Release(40, 2).(tea.MouseMsg), screenW, screenH))
	})
}

func TestToastController_Close(t *testing.T) {
	engine, _, _ := newTestEngine()
	c := NewToastController(engine)

	assert.False(t, c.Close())

	engine.Info("hello")
	assert.True(t, c.Close())
	assert.False(t, engine.Visible())
}

func TestSwipeDirection(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy int
		want   toast.SwipeDirection
		ok     bool
	}{
		{"below threshold", 2, 1, "", false},
		{"right", 3, 0, toast.SwipeRight, true},
		{"left", -4, 1, toast.SwipeLeft, true},
		{"down", 1, 3, toast.SwipeDown, true},
		{"up", 0, -5, toast.SwipeUp, true},
		{"diagonal prefers horizontal", 3, 3, toast.SwipeRight, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := swipeDirection(tt.dx, tt.dy)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustCurrent(t *testing.T, e *toast.Engine) toast.Notification {
	t.Helper()
	n, ok := e.Current()
	require.True(t, ok)
	return n
}
