package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/scribe/internal/core/logging"
	"github.com/colonyops/scribe/internal/core/throttle"
)

// ErrResetPending is returned when a reset is requested for a second address
// while a code for the first is still pending.
var ErrResetPending = errors.New("a password reset is already pending for another email")

// ResetStep is the position of a ResetFlow.
type ResetStep int

const (
	StepEmail ResetStep = iota
	StepCode
	StepDone
)

func (s ResetStep) String() string {
	switch s {
	case StepEmail:
		return "email"
	case StepCode:
		return "code"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("ResetStep(%d)", int(s))
}

// ResetFlow drives a password reset: request a code by email, then submit the
// code together with the new password. The session the identity service
// issues on completion is signed out again so the user signs in fresh.
type ResetFlow struct {
	mu       sync.Mutex
	provider Provider
	resend   *throttle.Throttle
	codes    *throttle.Counter
	log      zerolog.Logger

	step  ResetStep
	email string
}

// NewResetFlow creates a flow at StepEmail.
func NewResetFlow(p Provider, resend *throttle.Throttle, codes *throttle.Counter, log zerolog.Logger) *ResetFlow {
	return &ResetFlow{
		provider: p,
		resend:   resend,
		codes:    codes,
		log:      log.With().Str("flow", string(PurposePasswordReset)).Logger(),
	}
}

// Request sends a reset code to email and advances to StepCode. While a code
// is pending only the same address may be requested again; Cancel first to
// switch addresses.
func (f *ResetFlow) Request(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step == StepDone {
		return fmt.Errorf("reset already completed")
	}

	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	// a repeated request counts against the resend budget
	repeat := f.step == StepCode
	if repeat {
		if email != f.email {
			return ErrResetPending
		}
		if err := f.resend.Check(); err != nil {
			return err
		}
	}

	ctx = logging.WithFlow(ctx, string(PurposePasswordReset))
	if err := f.provider.SendCode(ctx, email, PurposePasswordReset); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}

	f.email = email
	f.codes.Reset()
	if repeat {
		return f.resend.RecordAttempt()
	}

	f.step = StepCode
	f.resend.Reset()
	f.resend.Arm()

	f.log.Info().Str("email", email).Msg("reset code sent")
	return nil
}

// Resend sends a new code for the pending reset and returns the attempts left
// before lockout.
func (f *ResetFlow) Resend(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepCode {
		return 0, ErrNoPendingFlow
	}
	if err := f.resend.Check(); err != nil {
		return 0, err
	}

	ctx = logging.WithFlow(ctx, string(PurposePasswordReset))
	if err := f.provider.SendCode(ctx, f.email, PurposePasswordReset); err != nil {
		return 0, fmt.Errorf("resend reset code: %w", err)
	}
	if err := f.resend.RecordAttempt(); err != nil {
		return 0, err
	}
	f.codes.Reset()

	left := f.resend.AttemptsLeft()
	f.log.Info().Int("attempts_left", left).Msg("reset code resent")
	return left, nil
}

// Complete sets the new password. On success the flow moves to StepDone, its
// throttle is reset, and the session issued by the reset is signed out.
func (f *ResetFlow) Complete(ctx context.Context, code, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepCode {
		return ErrNoPendingFlow
	}
	if err := ValidateReset(code, newPassword); err != nil {
		return err
	}
	if f.codes.Exhausted() {
		return ErrCodeExhausted
	}

	ctx = logging.WithFlow(ctx, string(PurposePasswordReset))
	sess, err := f.provider.ResetPassword(ctx, f.email, code, newPassword)
	if err != nil {
		if errors.Is(err, ErrCodeExhausted) {
			f.codes.Exhaust()
			f.log.Warn().Msg("reset code discarded by provider")
			return ErrCodeExhausted
		}
		if !errors.Is(err, ErrInvalidCode) {
			return fmt.Errorf("reset password: %w", err)
		}
		left := f.codes.Fail()
		f.log.Warn().Int("attempts_left", left).Msg("reset code rejected")
		if left == 0 {
			return ErrCodeExhausted
		}
		return &CodeRejectedError{Left: left}
	}

	if sess.ID != "" {
		if err := f.provider.SignOut(ctx, sess.ID); err != nil {
			f.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to clear reset session")
		}
	}

	f.step = StepDone
	f.email = ""
	f.resend.Reset()
	f.codes.Reset()

	f.log.Info().Msg("password reset complete")
	return nil
}

// Cancel abandons the reset and returns the flow to StepEmail.
func (f *ResetFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.step = StepEmail
	f.email = ""
	f.resend.Reset()
	f.codes.Reset()
}

// Step returns the current step.
func (f *ResetFlow) Step() ResetStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email returns the address the reset was requested for.
func (f *ResetFlow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Throttle exposes the resend throttle for countdown rendering.
func (f *ResetFlow) Throttle() *throttle.Throttle {
	return f.resend
}

// CodesLeft returns the wrong-code entries left for the current code.
func (f *ResetFlow) CodesLeft() int {
	return f.codes.Left()
}
