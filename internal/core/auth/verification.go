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

// VerificationFlow drives email-code verification for sign-up and for
// passwordless sign-in. Resends are throttled and wrong codes are counted; a
// successful verification clears both.
type VerificationFlow struct {
	mu       sync.Mutex
	provider Provider
	purpose  Purpose
	resend   *throttle.Throttle
	codes    *throttle.Counter
	log      zerolog.Logger

	// onVerified receives the session issued by a successful Verify.
	onVerified func(Session)

	email  string
	active bool
}

// NewVerificationFlow creates an idle flow.
func NewVerificationFlow(p Provider, purpose Purpose, resend *throttle.Throttle, codes *throttle.Counter, log zerolog.Logger) *VerificationFlow {
	return &VerificationFlow{
		provider: p,
		purpose:  purpose,
		resend:   resend,
		codes:    codes,
		log:      log.With().Str("flow", string(purpose)).Logger(),
	}
}

// Start sends the first code to email. The first dispatch opens a cooldown but
// does not spend a resend attempt.
func (f *VerificationFlow) Start(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	ctx = logging.WithFlow(ctx, string(f.purpose))
	if err := f.provider.SendCode(ctx, email, f.purpose); err != nil {
		return fmt.Errorf("send code: %w", err)
	}

	f.email = email
	f.active = true
	f.resend.Reset()
	f.resend.Arm()
	f.codes.Reset()

	f.log.Info().Str("email", email).Msg("verification code sent")
	return nil
}

// Resend sends a new code if the throttle allows it and returns the resend
// attempts left before lockout.
func (f *VerificationFlow) Resend(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return 0, ErrNoPendingFlow
	}
	if err := f.resend.Check(); err != nil {
		return 0, err
	}

	ctx = logging.WithFlow(ctx, string(f.purpose))
	if err := f.provider.SendCode(ctx, f.email, f.purpose); err != nil {
		return 0, fmt.Errorf("resend code: %w", err)
	}

	if err := f.resend.RecordAttempt(); err != nil {
		return 0, err
	}
	f.codes.Reset()

	left := f.resend.AttemptsLeft()
	f.log.Info().Int("attempts_left", left).Msg("verification code resent")
	return left, nil
}

// Verify submits code. Malformed codes are rejected locally and are not
// counted. A wrong code returns *CodeRejectedError until the budget is spent,
// then ErrCodeExhausted until a new code is requested.
func (f *VerificationFlow) Verify(ctx context.Context, code string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.active {
		return Session{}, ErrNoPendingFlow
	}
	if err := ValidateCode(code); err != nil {
		return Session{}, err
	}
	if f.codes.Exhausted() {
		return Session{}, ErrCodeExhausted
	}

	ctx = logging.WithFlow(ctx, string(f.purpose))
	sess, err := f.provider.VerifyCode(ctx, f.email, code, f.purpose)
	if err != nil {
		if errors.Is(err, ErrCodeExhausted) {
			f.codes.Exhaust()
			f.log.Warn().Msg("verification code discarded by provider")
			return Session{}, ErrCodeExhausted
		}
		if !errors.Is(err, ErrInvalidCode) {
			return Session{}, fmt.Errorf("verify code: %w", err)
		}

		left := f.codes.Fail()
		f.log.Warn().Int("attempts_left", left).Msg("verification code rejected")
		if left == 0 {
			return Session{}, ErrCodeExhausted
		}
		return Session{}, &CodeRejectedError{Left: left}
	}

	f.clearLocked()
	f.log.Info().Str("session_id", sess.ID).Msg("verification complete")
	if f.onVerified != nil {
		f.onVerified(sess)
	}
	return sess, nil
}

// Cancel abandons the flow and clears all bookkeeping.
func (f *VerificationFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearLocked()
}

// Active reports whether a code has been sent and not yet verified.
func (f *VerificationFlow) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Email returns the address the code was sent to.
func (f *VerificationFlow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Purpose returns what the codes are issued for.
func (f *VerificationFlow) Purpose() Purpose {
	return f.purpose
}

// Throttle exposes the resend throttle for countdown rendering.
func (f *VerificationFlow) Throttle() *throttle.Throttle {
	return f.resend
}

// CodesLeft returns the wrong-code entries left for the current code.
func (f *VerificationFlow) CodesLeft() int {
	return f.codes.Left()
}

func (f *VerificationFlow) clearLocked() {
	f.email = ""
	f.active = false
	f.resend.Reset()
	f.codes.Reset()
}
