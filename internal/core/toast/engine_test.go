package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives both the engine clock and its dismissal timers.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires due timers in deadline order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newTestEngine(opts ...Option) (*Engine, *fakeClock) {
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now), WithAfterFunc(clock.AfterFunc)}, opts...)
	return NewEngine(opts...), clock
}

func recordEvents(e *Engine) func() []Event {
	var (
		mu     sync.Mutex
		events []Event
	)
	e.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})
	return func() []Event {
		mu.Lock()
		defer mu.Unlock()
		out := make([]Event, len(events))
		copy(out, events)
		return out
	}
}

func TestEngine_Show_scenario_hides_after_default_duration(t *testing.T) {
	e, clock := newTestEngine()

	e.Show("Reset code sent", KindSuccess, WithPosition(PositionTop))

	n, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, KindSuccess, n.Kind)
	assert.Equal(t, "Reset code sent", n.Message)
	assert.Equal(t, PositionTop, n.Position)
	assert.Equal(t, DefaultDuration, n.Duration)
	assert.True(t, e.TimerPending())

	clock.Advance(DefaultDuration - time.Millisecond)
	assert.True(t, e.Visible())

	clock.Advance(time.Millisecond)
	assert.False(t, e.Visible())
	assert.False(t, e.TimerPending())
	assert.Zero(t, clock.Pending())
}

func TestEngine_Show_replaces_and_keeps_single_timer(t *testing.T) {
	e, clock := newTestEngine()

	for _, msg := range []string{"one", "two", "three", "four"} {
		e.Info(msg)
		clock.Advance(100 * time.Millisecond)

		n, ok := e.Current()
		require.True(t, ok)
		assert.Equal(t, msg, n.Message)
		assert.Equal(t, 1, clock.Pending(), "exactly one dismissal timer after showing %q", msg)
	}
}

func TestEngine_stale_timer_does_not_hide_newer_notification(t *testing.T) {
	e, clock := newTestEngine()

	e.Info("short", WithDuration(time.Second))
	clock.Advance(900 * time.Millisecond)

	e.Error("long", WithDuration(3*time.Second))
	clock.Advance(200 * time.Millisecond) // past the first notification's deadline

	n, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "long", n.Message)

	clock.Advance(2800 * time.Millisecond)
	assert.False(t, e.Visible())
}

func TestEngine_Show_then_Hide_before_duration(t *testing.T) {
	e, clock := newTestEngine()
	events := recordEvents(e)

	e.Warning("careful", WithDuration(2*time.Second))
	e.Hide()

	assert.False(t, e.Visible())
	assert.False(t, e.TimerPending())
	assert.Zero(t, clock.Pending())

	clock.Advance(5 * time.Second)
	got := events()
	require.Len(t, got, 2)
	assert.Equal(t, EventShown, got[0].Type)
	assert.Equal(t, EventHidden, got[1].Type)
	assert.Equal(t, ReasonHidden, got[1].Reason)
}

func TestEngine_Hide_is_idempotent(t *testing.T) {
	e, _ := newTestEngine()
	events := recordEvents(e)

	e.Hide() // nothing visible

	e.Info("hello")
	e.Hide()
	e.Hide()

	got := events()
	require.Len(t, got, 2)
	assert.Equal(t, EventHidden, got[1].Type)
	assert.False(t, e.Visible())
}

func TestEngine_Pause_and_Resume_at_half_progress(t *testing.T) {
	e, clock := newTestEngine()
	d := 3 * time.Second

	e.Info("hold me", WithDuration(d))
	clock.Advance(d / 2)
	assert.InDelta(t, 0.5, e.Progress(), 0.0001)

	e.Pause()
	assert.True(t, e.Paused())
	assert.False(t, e.TimerPending())
	assert.Zero(t, clock.Pending())

	// time spent holding does not count
	clock.Advance(10 * time.Second)
	assert.True(t, e.Visible())
	assert.InDelta(t, 0.5, e.Progress(), 0.0001)

	e.Resume()
	deadline, ok := e.Deadline()
	require.True(t, ok)
	assert.Equal(t, d/2, deadline.Sub(clock.Now()))
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(d/2 - time.Millisecond)
	assert.True(t, e.Visible())
	assert.InDelta(t, 0.0, e.Progress(), 0.001)

	clock.Advance(time.Millisecond)
	assert.False(t, e.Visible())
}

func TestEngine_Pause_without_notification_is_noop(t *testing.T) {
	e, _ := newTestEngine()
	events := recordEvents(e)

	e.Pause()
	e.Resume()

	assert.Empty(t, events())
	assert.False(t, e.Paused())
}

func TestEngine_Resume_without_Pause_is_noop(t *testing.T) {
	e, clock := newTestEngine()

	e.Info("steady", WithDuration(time.Second))
	before, _ := e.Deadline()
	clock.Advance(200 * time.Millisecond)

	e.Resume()
	after, _ := e.Deadline()
	assert.Equal(t, before, after)
}

func TestEngine_Show_while_paused_starts_fresh(t *testing.T) {
	e, clock := newTestEngine()

	e.Info("first", WithDuration(time.Second))
	clock.Advance(500 * time.Millisecond)
	e.Pause()

	e.Success("second", WithDuration(time.Second))
	assert.False(t, e.Paused())
	assert.True(t, e.TimerPending())
	assert.InDelta(t, 1.0, e.Progress(), 0.0001)

	clock.Advance(time.Second)
	assert.False(t, e.Visible())
}

func TestEngine_Swipe_and_Close_hide_immediately(t *testing.T) {
	tests := []struct {
		name   string
		act    func(e *Engine)
		reason Reason
	}{
		{"swipe up", func(e *Engine) { e.Swipe(SwipeUp) }, ReasonSwiped},
		{"swipe down", func(e *Engine) { e.Swipe(SwipeDown) }, ReasonSwiped},
		{"swipe left", func(e *Engine) { e.Swipe(SwipeLeft) }, ReasonSwiped},
		{"swipe right", func(e *Engine) { e.Swipe(SwipeRight) }, ReasonSwiped},
		{"close icon", func(e *Engine) { e.Close() }, ReasonClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock := newTestEngine()
			events := recordEvents(e)

			e.Error("dismiss me")
			tt.act(e)

			assert.False(t, e.Visible())
			assert.Zero(t, clock.Pending())

			got := events()
			require.Len(t, got, 2)
			assert.Equal(t, tt.reason, got[1].Reason)
		})
	}
}

func TestEngine_Progress_is_linear(t *testing.T) {
	e, clock := newTestEngine()

	e.Info("countdown", WithDuration(4*time.Second))
	assert.InDelta(t, 1.0, e.Progress(), 0.0001)

	clock.Advance(time.Second)
	assert.InDelta(t, 0.75, e.Progress(), 0.0001)

	clock.Advance(2 * time.Second)
	assert.InDelta(t, 0.25, e.Progress(), 0.0001)
}

func TestEngine_Configure_affects_subsequent_shows_only(t *testing.T) {
	e, _ := newTestEngine()

	first := e.Info("before")

	pos := PositionBottom
	dur := 5 * time.Second
	closeIcon := false
	e.Configure(ConfigPatch{Position: &pos, Duration: &dur, ShowCloseIcon: &closeIcon})

	current, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, first, current)
	assert.Equal(t, PositionTop, current.Position)
	assert.True(t, current.ShowCloseIcon)

	second := e.Info("after")
	assert.Equal(t, PositionBottom, second.Position)
	assert.Equal(t, 5*time.Second, second.Duration)
	assert.False(t, second.ShowCloseIcon)
}

func TestEngine_Configure_ignores_invalid_values(t *testing.T) {
	e, _ := newTestEngine()

	pos := Position("sideways")
	dur := -time.Second
	theme := Theme("neon")
	e.Configure(ConfigPatch{Position: &pos, Duration: &dur, Theme: &theme})

	assert.Equal(t, DefaultConfig(), e.Config())
}

func TestEngine_Show_normalizes_options(t *testing.T) {
	e, _ := newTestEngine()

	n := e.Show("odd", Kind("fatal"), WithDuration(0), WithPosition("nowhere"))

	assert.Equal(t, KindInfo, n.Kind)
	assert.Equal(t, DefaultDuration, n.Duration)
	assert.Equal(t, PositionTop, n.Position)
}

func TestEngine_Announcement(t *testing.T) {
	e, _ := newTestEngine()

	_, ok := e.Announcement()
	assert.False(t, ok)

	e.Error("Failed to resend code")
	a, ok := e.Announcement()
	require.True(t, ok)
	assert.Equal(t, "alert", a.Role)
	assert.Equal(t, "error notification: Failed to resend code", a.Label)
}

func TestEngine_events_mark_replacement(t *testing.T) {
	e, _ := newTestEngine()
	events := recordEvents(e)

	e.Info("a")
	e.Info("b")

	got := events()
	require.Len(t, got, 2)
	assert.Equal(t, ReasonNone, got[0].Reason)
	assert.Equal(t, ReasonReplaced, got[1].Reason)
}

func TestEngine_Shutdown_stops_timers(t *testing.T) {
	e, clock := newTestEngine()
	events := recordEvents(e)

	e.Info("bye")
	e.Shutdown()

	assert.False(t, e.Visible())
	assert.Zero(t, clock.Pending())
	clock.Advance(time.Minute)
	assert.Len(t, events(), 1)
}

func TestEngine_real_timer_expires(t *testing.T) {
	e := NewEngine()

	e.Info("quick", WithDuration(10*time.Millisecond))

	require.Eventually(t, func() bool { return !e.Visible() }, time.Second, 5*time.Millisecond)
	assert.False(t, e.TimerPending())
}
