package auth

import (
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"", false},
		{"user@", false},
		{"user@example", false},
		{"user example@test.com", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  User@Example.COM "))
}

func TestPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		score    int
		met      bool
	}{
		{"", 0, false},
		{"abc", 1, false},
		{"abcdefgh", 2, false},
		{"Abcdefgh", 3, false},
		{"Abcdefg1", 4, false},
		{"Abcdef1!", 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			r := PasswordStrength(tt.password)
			assert.Equal(t, tt.score, r.Score())
			assert.Equal(t, tt.met, r.Met())
			assert.Len(t, r.Missing(), 5-tt.score)
		})
	}
}

func TestValidateNewPassword(t *testing.T) {
	require.NoError(t, ValidateNewPassword("Sup3r$ecret"))

	err := ValidateNewPassword("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
	assert.Contains(t, err.Error(), "a number")
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("012345"))
	assert.ErrorContains(t, ValidateCode(""), "enter the verification code")
	assert.ErrorContains(t, ValidateCode("123"), "complete verification code")
	assert.ErrorContains(t, ValidateCode("12a456"), "only digits")
}

func TestValidateSignUp_reports_fields(t *testing.T) {
	err := ValidateSignUp("not-an-email", "weak")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 2)
	assert.Equal(t, "email", fieldErrs[0].Field)
	assert.Equal(t, "password", fieldErrs[1].Field)

	assert.NoError(t, ValidateSignUp("user@example.com", "Sup3r$ecret"))
}

func TestFormatWait(t *testing.T) {
	assert.Equal(t, "0s", FormatWait(0))
	assert.Equal(t, "27s", FormatWait(26*time.Second+100*time.Millisecond))
	assert.Equal(t, "1:00", FormatWait(time.Minute))
	assert.Equal(t, "29:58", FormatWait(29*time.Minute+58*time.Second))
	assert.Equal(t, "60:00", FormatWait(time.Hour))
}
