package auth

import (
	"errors"
	"fmt"

	"github.com/colonyops/scribe/internal/core/throttle"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExhausted      = errors.New("maximum code attempts reached")
	ErrRateLimited        = errors.New("too many requests")
	ErrUnavailable        = errors.New("identity service unavailable")
	ErrNoPendingFlow      = errors.New("no verification in progress")
)

// CodeRejectedError is returned when a code is wrong but more entries remain.
type CodeRejectedError struct {
	Left int
}

func (e *CodeRejectedError) Error() string {
	return fmt.Sprintf("invalid verification code, %d %s remaining", e.Left, plural(e.Left, "attempt", "attempts"))
}

func (e *CodeRejectedError) Is(target error) bool {
	return target == ErrInvalidCode
}

// Message converts err into the text shown to the user.
func Message(err error) string {
	var rejected *CodeRejectedError
	var wait *throttle.WaitError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejected):
		return fmt.Sprintf("Invalid code. %d %s remaining.", rejected.Left, plural(rejected.Left, "attempt", "attempts"))
	case errors.As(err, &wait):
		if wait.Locked {
			return "Too many attempts. Try again in " + FormatWait(wait.Remaining) + "."
		}
		return "Please wait " + FormatWait(wait.Remaining) + " before requesting another code."
	case errors.Is(err, ErrCodeExhausted):
		return "Maximum attempts reached. Please request a new code."
	case errors.Is(err, ErrInvalidCode):
		return "Invalid verification code."
	case errors.Is(err, ErrInvalidCredentials):
		return "Incorrect password. Please try again."
	case errors.Is(err, ErrAccountNotFound):
		return "No account found with this email. Please sign up first."
	case errors.Is(err, ErrAccountExists):
		return "Email already exists. Please sign in instead."
	case errors.Is(err, ErrRateLimited):
		return "Too many attempts. Please try again later."
	case errors.Is(err, ErrResetPending):
		return "A reset is already pending for another email. Cancel it to start over."
	case errors.Is(err, ErrOAuthDenied):
		return "Sign-in was not authorized by the provider."
	case errors.Is(err, ErrUnavailable):
		return "Service unavailable. Please try again later."
	default:
		return "An error occurred. Please try again."
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
