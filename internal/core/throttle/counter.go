package throttle

import "sync"

// Counter limits consecutive failed entries, such as wrong verification codes.
type Counter struct {
	mu       sync.Mutex
	max      int
	failures int
}

// NewCounter returns a counter allowing limit failures. Values below 1 are
// treated as 1.
func NewCounter(limit int) *Counter {
	if limit < 1 {
		limit = 1
	}
	return &Counter{max: limit}
}

// Fail records a failure and returns the entries left.
func (c *Counter) Fail() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures < c.max {
		c.failures++
	}
	return c.max - c.failures
}

// Exhaust spends the remaining budget, for when the other side has already
// given up on the entry.
func (c *Counter) Exhaust() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = c.max
}

// Left returns the entries left.
func (c *Counter) Left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.max - c.failures
}

// Exhausted reports whether no entries are left.
func (c *Counter) Exhausted() bool {
	return c.Left() == 0
}

// Max returns the configured limit.
func (c *Counter) Max() int {
	return c.max
}

// Reset restores the full budget.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
}
