package auth

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/hay-kot/criterio"
)

const (
	MinPasswordLength = 8
	CodeLength        = 6
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address has a plausible shape.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailRe.MatchString(email) {
		return errors.New("please enter a valid email address")
	}
	return nil
}

// PasswordRequirements lists which strength rules a password meets.
type PasswordRequirements struct {
	Length    bool
	Uppercase bool
	Lowercase bool
	Number    bool
	Special   bool
}

// Score counts the satisfied requirements, 0 to 5.
func (r PasswordRequirements) Score() int {
	score := 0
	for _, ok := range []bool{r.Length, r.Uppercase, r.Lowercase, r.Number, r.Special} {
		if ok {
			score++
		}
	}
	return score
}

// Met reports whether every requirement is satisfied.
func (r PasswordRequirements) Met() bool {
	return r.Score() == 5
}

// Missing describes the unmet requirements in display order.
func (r PasswordRequirements) Missing() []string {
	var out []string
	if !r.Length {
		out = append(out, fmt.Sprintf("at least %d characters", MinPasswordLength))
	}
	if !r.Uppercase {
		out = append(out, "an uppercase letter")
	}
	if !r.Lowercase {
		out = append(out, "a lowercase letter")
	}
	if !r.Number {
		out = append(out, "a number")
	}
	if !r.Special {
		out = append(out, "a special character")
	}
	return out
}

// PasswordStrength evaluates password against the strength rules.
func PasswordStrength(password string) PasswordRequirements {
	r := PasswordRequirements{Length: len([]rune(password)) >= MinPasswordLength}
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			r.Uppercase = true
		case unicode.IsLower(c):
			r.Lowercase = true
		case unicode.IsDigit(c):
			r.Number = true
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			r.Special = true
		}
	}
	return r
}

// ValidateNewPassword requires every strength rule for a password being set.
func ValidateNewPassword(password string) error {
	r := PasswordStrength(password)
	if r.Met() {
		return nil
	}
	return fmt.Errorf("password needs %s", strings.Join(r.Missing(), ", "))
}

// ValidatePassword only requires a password to be present, for sign-in.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("please enter your password")
	}
	return nil
}

// ValidateCode checks a verification code is exactly six digits.
func ValidateCode(code string) error {
	if code == "" {
		return errors.New("please enter the verification code")
	}
	if len(code) != CodeLength {
		return errors.New("please enter a complete verification code")
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return errors.New("verification code must contain only digits")
		}
	}
	return nil
}

// ValidateSignUp validates the sign-up form fields.
func ValidateSignUp(email, password string) error {
	return criterio.ValidateStruct(
		criterio.Run("email", email, ValidateEmail),
		criterio.Run("password", password, ValidateNewPassword),
	)
}

// ValidateSignIn validates the sign-in form fields.
func ValidateSignIn(email, password string) error {
	return criterio.ValidateStruct(
		criterio.Run("email", email, ValidateEmail),
		criterio.Run("password", password, ValidatePassword),
	)
}

// ValidateReset validates the code and new password of a reset.
func ValidateReset(code, password string) error {
	return criterio.ValidateStruct(
		criterio.Run("code", code, ValidateCode),
		criterio.Run("password", password, ValidateNewPassword),
	)
}

// FormatWait renders a wait as "27s" below a minute and "29:58" above.
func FormatWait(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 0 {
		secs = 0
	}
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
