package throttle

import (
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestThrottle(p Policy) (*Throttle, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return New(p, WithClock(func() time.Time { return now })), &now
}

var resetPolicy = Policy{MaxAttempts: 2, Cooldown: 30 * time.Second, Lockout: time.Hour}

func TestThrottle_no_attempts(t *testing.T) {
	th, _ := newTestThrottle(resetPolicy)

	assert.True(t, th.CanResend())
	assert.Equal(t, 0, th.RemainingSeconds())
	assert.Equal(t, time.Duration(0), th.Remaining())
	assert.False(t, th.Locked())
	assert.Equal(t, 2, th.AttemptsLeft())
	assert.NoError(t, th.Check())
}

func TestThrottle_lockout_after_max_attempts(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	assert.False(t, th.CanResend())
	assert.Equal(t, 30, th.RemainingSeconds())

	*now = now.Add(30 * time.Second)
	assert.True(t, th.CanResend())
	require.NoError(t, th.RecordAttempt())

	assert.False(t, th.CanResend())
	assert.True(t, th.Locked())
	assert.Equal(t, 3600, th.RemainingSeconds())
	assert.Equal(t, 0, th.AttemptsLeft())

	*now = now.Add(time.Hour - time.Second)
	assert.False(t, th.CanResend())
	assert.Equal(t, 1, th.RemainingSeconds())

	*now = now.Add(time.Second)
	assert.True(t, th.CanResend())
	assert.Equal(t, 0, th.Attempts())
	assert.False(t, th.Locked())
	assert.Equal(t, 2, th.AttemptsLeft())
}

func TestThrottle_RecordAttempt_inside_window(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(10 * time.Second)

	err := th.RecordAttempt()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrCoolingDown)

	var waitErr *WaitError
	require.ErrorAs(t, err, &waitErr)
	assert.Equal(t, 20*time.Second, waitErr.Remaining)
	assert.False(t, waitErr.Locked)
	assert.Equal(t, 1, th.Attempts(), "rejected attempt must not be counted")
}

func TestThrottle_Check_reports_lockout(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(time.Minute)
	require.NoError(t, th.RecordAttempt())

	err := th.Check()
	var waitErr *WaitError
	require.ErrorAs(t, err, &waitErr)
	assert.True(t, waitErr.Locked)
	assert.Equal(t, time.Hour, waitErr.Remaining)
	assert.Contains(t, err.Error(), "too many attempts")
}

func TestThrottle_RemainingSeconds_rounds_up(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(29*time.Second + 100*time.Millisecond)

	assert.Equal(t, 1, th.RemainingSeconds())
}

func TestThrottle_Arm_starts_cooldown_without_spending_attempt(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	th.Arm()
	assert.False(t, th.CanResend())
	assert.Equal(t, 30, th.RemainingSeconds())
	assert.Equal(t, 0, th.Attempts())

	*now = now.Add(30 * time.Second)
	assert.True(t, th.CanResend())
	assert.Equal(t, 2, th.AttemptsLeft())
}

func TestThrottle_clock_regression_fails_closed(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(-5 * time.Minute)

	assert.False(t, th.CanResend())
	assert.Equal(t, 30*time.Second, th.Remaining())
	assert.ErrorIs(t, th.RecordAttempt(), ErrCoolingDown)
}

func TestThrottle_Reset(t *testing.T) {
	th, now := newTestThrottle(resetPolicy)

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(time.Minute)
	require.NoError(t, th.RecordAttempt())
	require.True(t, th.Locked())

	th.Reset()

	st := th.State()
	assert.True(t, st.CanResend)
	assert.False(t, st.Locked)
	assert.Equal(t, 0, st.Attempts)
	assert.Equal(t, 2, st.AttemptsLeft)
	assert.True(t, st.LastAttempt.IsZero())
	assert.Equal(t, 0, st.RemainingSeconds())
}

func TestThrottle_State_snapshot(t *testing.T) {
	th, now := newTestThrottle(Policy{MaxAttempts: 3, Cooldown: 30 * time.Second, Lockout: 30 * time.Minute})

	require.NoError(t, th.RecordAttempt())
	*now = now.Add(12 * time.Second)

	st := th.State()
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, 2, st.AttemptsLeft)
	assert.False(t, st.CanResend)
	assert.False(t, st.Locked)
	assert.Equal(t, 18*time.Second, st.Remaining)
	assert.Equal(t, 18, st.RemainingSeconds())
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		fields []string
	}{
		{
			name:   "valid",
			policy: resetPolicy,
		},
		{
			name:   "zero attempts",
			policy: Policy{MaxAttempts: 0, Cooldown: time.Second, Lockout: time.Minute},
			fields: []string{"max_attempts"},
		},
		{
			name:   "lockout shorter than cooldown",
			policy: Policy{MaxAttempts: 1, Cooldown: time.Minute, Lockout: time.Second},
			fields: []string{"lockout"},
		},
		{
			name:   "empty",
			policy: Policy{},
			fields: []string{"max_attempts", "cooldown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, len(tt.fields))
			for i, f := range tt.fields {
				assert.Equal(t, f, fieldErrs[i].Field)
			}
		})
	}
}

func TestCounter(t *testing.T) {
	c := NewCounter(3)

	assert.Equal(t, 3, c.Left())
	assert.Equal(t, 2, c.Fail())
	assert.Equal(t, 1, c.Fail())
	assert.False(t, c.Exhausted())
	assert.Equal(t, 0, c.Fail())
	assert.True(t, c.Exhausted())
	assert.Equal(t, 0, c.Fail(), "failures past the limit stay at zero")

	c.Reset()
	assert.Equal(t, 3, c.Left())
	assert.False(t, c.Exhausted())
}

func TestCounter_Exhaust(t *testing.T) {
	c := NewCounter(3)
	c.Fail()
	c.Exhaust()
	assert.True(t, c.Exhausted())
	assert.Equal(t, 0, c.Left())

	c.Reset()
	assert.Equal(t, 3, c.Left())
}

func TestNewCounter_clamps_limit(t *testing.T) {
	c := NewCounter(0)
	assert.Equal(t, 1, c.Max())
	assert.Equal(t, 0, c.Fail())
	assert.True(t, c.Exhausted())
}
