package primitives

import "time"

// Clock supplies wall time. The engine never reads time.Now directly so tests
// and replays stay deterministic.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now returns time.Now in UTC with the monotonic reading stripped.
func (SystemClock) Now() time.Time { return time.Now().UTC().Round(0) }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }
