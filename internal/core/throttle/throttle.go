// Package throttle limits how often a user may repeat a remote action such as
// resending a verification code. A short cooldown separates attempts and a
// longer lockout applies once the attempt budget is spent.
package throttle

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hay-kot/criterio"
)

// ErrCoolingDown is matched by the error RecordAttempt and Check return while
// a cooldown or lockout window is active.
var ErrCoolingDown = errors.New("action is cooling down")

// WaitError reports how long the caller must wait before trying again.
type WaitError struct {
	Remaining time.Duration
	Locked    bool
}

func (e *WaitError) Error() string {
	if e.Locked {
		return fmt.Sprintf("too many attempts, try again in %s", e.Remaining.Round(time.Second))
	}
	return fmt.Sprintf("please wait %s before trying again", e.Remaining.Round(time.Second))
}

func (e *WaitError) Is(target error) bool {
	return target == ErrCoolingDown
}

// Policy parameterizes a throttle per call site.
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Cooldown    time.Duration `yaml:"cooldown"`
	Lockout     time.Duration `yaml:"lockout"`
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	var errs criterio.FieldErrorsBuilder
	if p.MaxAttempts < 1 {
		errs = errs.Append("max_attempts", fmt.Errorf("must be at least 1, got %d", p.MaxAttempts))
	}
	if p.Cooldown <= 0 {
		errs = errs.Append("cooldown", fmt.Errorf("must be positive, got %s", p.Cooldown))
	}
	if p.Lockout < p.Cooldown {
		errs = errs.Append("lockout", fmt.Errorf("must not be shorter than cooldown (%s), got %s", p.Cooldown, p.Lockout))
	}
	return errs.ToError()
}

// Option configures a Throttle.
type Option func(*Throttle)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(t *Throttle) { t.now = now }
}

// State is a point-in-time snapshot used for rendering.
type State struct {
	Attempts     int
	AttemptsLeft int
	LastAttempt  time.Time
	CanResend    bool
	Locked       bool
	Remaining    time.Duration
}

// RemainingSeconds rounds Remaining up to whole seconds.
func (s State) RemainingSeconds() int {
	return ceilSeconds(s.Remaining)
}

// Throttle tracks attempts for one action. State is derived from the clock on
// every call, so no background ticking is needed for correctness.
type Throttle struct {
	mu     sync.Mutex
	policy Policy
	now    func() time.Time

	attempts int
	last     time.Time
}

// New creates a throttle for p.
func New(p Policy, opts ...Option) *Throttle {
	t := &Throttle{policy: p, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the throttle's policy.
func (t *Throttle) Policy() Policy {
	return t.policy
}

// CanResend reports whether no cooldown or lockout window is active.
func (t *Throttle) CanResend() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining, _ := t.evalLocked(t.now())
	return remaining == 0
}

// Check returns a *WaitError when a window is active.
func (t *Throttle) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkLocked(t.now())
}

// RecordAttempt counts a successful remote call. Once the attempt budget is
// reached the next window uses the lockout instead of the cooldown. Calling it
// inside an active window returns a *WaitError and changes nothing.
func (t *Throttle) RecordAttempt() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if err := t.checkLocked(now); err != nil {
		return err
	}
	t.attempts++
	t.last = now
	return nil
}

// Arm starts a cooldown window without spending an attempt. It is used for the
// initial dispatch of a code, which the user did not ask to repeat.
func (t *Throttle) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = t.now()
}

// Remaining is the time left in the active window, zero when none.
func (t *Throttle) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining, _ := t.evalLocked(t.now())
	return remaining
}

// RemainingSeconds is Remaining rounded up to whole seconds.
func (t *Throttle) RemainingSeconds() int {
	return ceilSeconds(t.Remaining())
}

// Locked reports whether the lockout window is active.
func (t *Throttle) Locked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, locked := t.evalLocked(t.now())
	return locked
}

// Attempts returns the attempts counted toward the current budget.
func (t *Throttle) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evalLocked(t.now())
	return t.attempts
}

// AttemptsLeft returns how many attempts remain before lockout.
func (t *Throttle) AttemptsLeft() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.evalLocked(t.now())
	return max(t.policy.MaxAttempts-t.attempts, 0)
}

// State returns a consistent snapshot.
func (t *Throttle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining, locked := t.evalLocked(t.now())
	return State{
		Attempts:     t.attempts,
		AttemptsLeft: max(t.policy.MaxAttempts-t.attempts, 0),
		LastAttempt:  t.last,
		CanResend:    remaining == 0,
		Locked:       locked,
		Remaining:    remaining,
	}
}

// Reset clears all bookkeeping. Call it when the flow completes or the screen
// is left.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts = 0
	t.last = time.Time{}
}

func (t *Throttle) checkLocked(now time.Time) error {
	remaining, locked := t.evalLocked(now)
	if remaining > 0 {
		return &WaitError{Remaining: remaining, Locked: locked}
	}
	return nil
}

// evalLocked returns the time left in the active window and whether that
// window is a lockout. A served lockout resets the attempt count. A clock
// reading before the last attempt keeps the full window active.
func (t *Throttle) evalLocked(now time.Time) (time.Duration, bool) {
	if t.last.IsZero() {
		return 0, false
	}

	locked := t.attempts >= t.policy.MaxAttempts
	required := t.policy.Cooldown
	if locked {
		required = t.policy.Lockout
	}

	elapsed := now.Sub(t.last)
	if elapsed < 0 {
		return required, locked
	}
	if elapsed >= required {
		if locked {
			t.attempts = 0
		}
		return 0, false
	}
	return required - elapsed, locked
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
