// Package testutil provides shared test fixtures.
package testutil

import "sync"

// ManualClock is a thread-safe settable clock for tests.
//
// Time only moves when a test moves it, so delay arithmetic can be checked
// at exact boundaries (one second before the deadline, then at it).
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a clock fixed at the given unix time.
func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current reading.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by seconds.
func (c *ManualClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// Set jumps the clock to an absolute unix time.
func (c *ManualClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
