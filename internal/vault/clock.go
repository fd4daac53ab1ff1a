package vault

import "time"

// Clock supplies the current time to every time-dependent guard.
//
// The core never schedules wakeups; "the delay has elapsed" is always a
// comparison against an externally supplied now. Production uses WallClock;
// tests and the CLI's --now override inject their own.
type Clock interface {
	// Now returns the current time in unix seconds.
	Now() int64
}

// WallClock reads the system clock.
type WallClock struct{}

// Now implements Clock.
func (WallClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock returns a constant time. Used by the CLI's --now override.
type FixedClock int64

// Now implements Clock.
func (c FixedClock) Now() int64 {
	return int64(c)
}
