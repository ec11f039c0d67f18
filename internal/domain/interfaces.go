package domain

import "time"

// Clock supplies "now" for date-boundary logic (completed-today counts,
// same-day priority bucketing). Injected so tests control the wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock
type SystemClock struct{}

// Now returns the current wall-clock time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock is a Clock pinned to one instant, for tests
type FixedClock struct {
	T time.Time
}

// Now returns the pinned instant
func (c FixedClock) Now() time.Time {
	return c.T
}
