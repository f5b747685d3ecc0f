package wire

import (
	"math"
	"time"
)

// Clock is a monotonic time source
type Clock interface {
	Now() time.Time
}

// SystemClock reads the time from the OS
type SystemClock struct{}

// Now returns time.Now which carries a monotonic reading
func (SystemClock) Now() time.Time {
	return time.Now()
}

// InfiniteDuration is the duration of a tracker which never expires
const InfiniteDuration = time.Duration(math.MaxInt64)

// TimeoutTracker counts down the time left for an operation which may
// be made of several reads and writes.
type TimeoutTracker struct {
	clock   Clock
	start   time.Time
	timeout time.Duration
}

// Infinite never expires. Streams use it so they end only when the
// channel is closed or the caller cancels.
var Infinite = &TimeoutTracker{timeout: InfiniteDuration}

// NewTimeoutTracker starts a countdown of d on clock. A negative d or
// InfiniteDuration gives a tracker which never expires.
func NewTimeoutTracker(clock Clock, d time.Duration) *TimeoutTracker {
	if d < 0 || d == InfiniteDuration {
		return Infinite
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TimeoutTracker{
		clock:   clock,
		start:   clock.Now(),
		timeout: d,
	}
}

// IsInfinite returns true if the tracker never expires
func (t *TimeoutTracker) IsInfinite() bool {
	return t == nil || t.timeout == InfiniteDuration
}

// Duration returns the total timeout
func (t *TimeoutTracker) Duration() time.Duration {
	if t.IsInfinite() {
		return InfiniteDuration
	}
	return t.timeout
}

// Elapsed returns the time since the tracker started
func (t *TimeoutTracker) Elapsed() time.Duration {
	if t.IsInfinite() {
		return 0
	}
	return t.clock.Now().Sub(t.start)
}

// Remaining returns the time left, never less than 0
func (t *TimeoutTracker) Remaining() time.Duration {
	if t.IsInfinite() {
		return InfiniteDuration
	}
	left := t.timeout - t.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Expired returns true once no time is left
func (t *TimeoutTracker) Expired() bool {
	return !t.IsInfinite() && t.Remaining() == 0
}

// Deadline returns the absolute deadline for socket operations, the
// zero time for an infinite tracker.
func (t *TimeoutTracker) Deadline() time.Time {
	if t.IsInfinite() {
		return time.Time{}
	}
	return time.Now().Add(t.Remaining())
}

// String returns a readable description
func (t *TimeoutTracker) String() string {
	if t.IsInfinite() {
		return "infinite"
	}
	return t.Remaining().String() + " of " + t.timeout.String()
}
