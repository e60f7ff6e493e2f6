package toast

import (
	"sync"
	"time"
)

// Timer is a cancellable one-shot timer. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn to run once after d. Implementations must not call
// fn synchronously.
type AfterFunc func(d time.Duration, fn func()) Timer

func realAfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// EventType identifies a visible-state transition.
type EventType string

const (
	EventShown   EventType = "shown"
	EventHidden  EventType = "hidden"
	EventPaused  EventType = "paused"
	EventResumed EventType = "resumed"
)

// Reason records why a notification was hidden.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonExpired  Reason = "expired"
	ReasonHidden   Reason = "hidden"
	ReasonSwiped   Reason = "swiped"
	ReasonClosed   Reason = "closed"
	ReasonReplaced Reason = "replaced"
)

// Event is delivered to subscribers after every visible-state change.
type Event struct {
	Type         EventType
	Reason       Reason
	Notification Notification
}

// Subscriber is a callback invoked when the engine state changes.
type Subscriber func(Event)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for progress and deadlines.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAfterFunc replaces the timer factory used for dismissal timers.
func WithAfterFunc(fn AfterFunc) Option {
	return func(e *Engine) { e.afterFunc = fn }
}

// WithConfig sets the initial defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// Engine owns the single visible notification slot. The countdown animation
// and the dismissal timer are tracked independently: progress is derived from
// the animation anchor and only the timer hides the notification.
//
// Engine is safe for concurrent use. Subscribers are invoked without the
// engine lock held.
type Engine struct {
	mu        sync.Mutex
	now       func() time.Time
	afterFunc AfterFunc
	cfg       Config

	current *Notification
	seq     uint64

	// dismissal timer; gen identifies the live timer so a callback that lost
	// the race with Stop is ignored
	timer    Timer
	gen      uint64
	deadline time.Time

	// countdown animation; progress is the remaining fraction at animStart
	progress  float64
	animStart time.Time
	paused    bool

	subscribers []Subscriber
}

// NewEngine creates an engine with default configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:       time.Now,
		afterFunc: realAfterFunc,
		cfg:       DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn to receive every state change.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// Configure merges patch into the defaults used by subsequent Show calls.
func (e *Engine) Configure(patch ConfigPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = patch.apply(e.cfg)
}

// Config returns the current defaults.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Show replaces any visible notification with a new one and starts its
// dismissal timer.
func (e *Engine) Show(message string, kind Kind, opts ...ShowOption) Notification {
	e.mu.Lock()

	so := showOptions{position: e.cfg.Position, duration: e.cfg.Duration}
	for _, opt := range opts {
		opt(&so)
	}
	if so.duration <= 0 {
		so.duration = e.cfg.Duration
	}
	if !so.position.IsValid() {
		so.position = e.cfg.Position
	}
	if !kind.IsValid() {
		kind = KindInfo
	}

	replaced := e.current != nil
	e.stopTimerLocked()

	now := e.now()
	e.seq++
	n := Notification{
		ID:              e.seq,
		Message:         message,
		Kind:            kind,
		Position:        so.position,
		Duration:        so.duration,
		ShownAt:         now,
		Theme:           e.cfg.Theme,
		Width:           e.cfg.Width,
		ShowCloseIcon:   e.cfg.ShowCloseIcon,
		ShowProgressBar: e.cfg.ShowProgressBar,
	}
	e.current = &n
	e.paused = false
	e.progress = 1
	e.animStart = now
	e.startTimerLocked(so.duration, now)

	subs := e.subscribersLocked()
	e.mu.Unlock()

	reason := ReasonNone
	if replaced {
		reason = ReasonReplaced
	}
	dispatch(subs, Event{Type: EventShown, Reason: reason, Notification: n})
	return n
}

// Info shows an info notification.
func (e *Engine) Info(message string, opts ...ShowOption) Notification {
	return e.Show(message, KindInfo, opts...)
}

// Success shows a success notification.
func (e *Engine) Success(message string, opts ...ShowOption) Notification {
	return e.Show(message, KindSuccess, opts...)
}

// Warning shows a warning notification.
func (e *Engine) Warning(message string, opts ...ShowOption) Notification {
	return e.Show(message, KindWarning, opts...)
}

// Error shows an error notification.
func (e *Engine) Error(message string, opts ...ShowOption) Notification {
	return e.Show(message, KindError, opts...)
}

// Hide ends the visible notification. Calling Hide with nothing visible is a
// no-op.
func (e *Engine) Hide() {
	e.hide(ReasonHidden)
}

// Swipe dismisses the visible notification in response to a swipe gesture.
func (e *Engine) Swipe(_ SwipeDirection) {
	e.hide(ReasonSwiped)
}

// Close dismisses the visible notification via its close affordance.
func (e *Engine) Close() {
	e.hide(ReasonClosed)
}

// Pause freezes the countdown at its current progress and cancels the
// dismissal timer (touch-start).
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.current == nil || e.paused {
		e.mu.Unlock()
		return
	}

	e.progress = e.progressLocked(e.now())
	e.paused = true
	e.stopTimerLocked()

	n := *e.current
	subs := e.subscribersLocked()
	e.mu.Unlock()

	dispatch(subs, Event{Type: EventPaused, Notification: n})
}

// Resume restarts the countdown from the frozen progress. The new timer runs
// for Duration × progress (touch-end).
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.current == nil || !e.paused {
		e.mu.Unlock()
		return
	}

	remaining := time.Duration(float64(e.current.Duration) * e.progress)
	if remaining <= 0 {
		e.mu.Unlock()
		e.hide(ReasonExpired)
		return
	}

	now := e.now()
	e.paused = false
	e.animStart = now
	e.startTimerLocked(remaining, now)

	n := *e.current
	subs := e.subscribersLocked()
	e.mu.Unlock()

	dispatch(subs, Event{Type: EventResumed, Notification: n})
}

// Current returns the visible notification, if any.
func (e *Engine) Current() (Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Notification{}, false
	}
	return *e.current, true
}

// Visible reports whether a notification is on screen.
func (e *Engine) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Paused reports whether the countdown is frozen.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil && e.paused
}

// TimerPending reports whether a dismissal timer is scheduled.
func (e *Engine) TimerPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer != nil
}

// Deadline returns the instant the pending dismissal timer fires.
func (e *Engine) Deadline() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer == nil {
		return time.Time{}, false
	}
	return e.deadline, true
}

// Progress returns the remaining fraction of the countdown animation, from 1
// (just shown) to 0 (elapsed). It is purely cosmetic.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	return e.progressLocked(e.now())
}

// Announcement returns the alert-role payload for the visible notification.
func (e *Engine) Announcement() (Announcement, bool) {
	n, ok := e.Current()
	if !ok {
		return Announcement{}, false
	}
	return announce(n), true
}

// Shutdown hides any visible notification, stops timers and drops
// subscribers. The engine remains usable afterwards.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.stopTimerLocked()
	e.current = nil
	e.paused = false
	e.subscribers = nil
	e.mu.Unlock()
}

func (e *Engine) hide(reason Reason) {
	e.mu.Lock()
	e.stopTimerLocked()
	if e.current == nil {
		e.mu.Unlock()
		return
	}

	n := *e.current
	e.current = nil
	e.paused = false
	e.progress = 0

	subs := e.subscribersLocked()
	e.mu.Unlock()

	dispatch(subs, Event{Type: EventHidden, Reason: reason, Notification: n})
}

// expire is the dismissal timer callback for timer generation gen.
func (e *Engine) expire(gen uint64) {
	e.mu.Lock()
	if e.current == nil || e.timer == nil || e.gen != gen {
		e.mu.Unlock()
		return
	}

	e.timer = nil
	e.deadline = time.Time{}
	n := *e.current
	e.current = nil
	e.progress = 0
	subs := e.subscribersLocked()
	e.mu.Unlock()

	dispatch(subs, Event{Type: EventHidden, Reason: ReasonExpired, Notification: n})
}

func (e *Engine) startTimerLocked(d time.Duration, now time.Time) {
	e.stopTimerLocked()
	e.gen++
	gen := e.gen
	e.deadline = now.Add(d)
	e.timer = e.afterFunc(d, func() { e.expire(gen) })
}

func (e *Engine) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.deadline = time.Time{}
}

func (e *Engine) progressLocked(now time.Time) float64 {
	if e.paused || e.current == nil {
		return e.progress
	}
	elapsed := now.Sub(e.animStart)
	if elapsed < 0 {
		elapsed = 0
	}
	p := e.progress - float64(elapsed)/float64(e.current.Duration)
	return min(max(p, 0), 1)
}

func (e *Engine) subscribersLocked() []Subscriber {
	subs := make([]Subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	return subs
}

func dispatch(subs []Subscriber, ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
