package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestTimeoutTracker(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tt := NewTimeoutTracker(clock, 10*time.Second)
	assert.False(t, tt.IsInfinite())
	assert.Equal(t, 10*time.Second, tt.Duration())
	assert.Equal(t, 10*time.Second, tt.Remaining())
	assert.False(t, tt.Expired())

	clock.Advance(4 * time.Second)
	assert.Equal(t, 6*time.Second, tt.Remaining())
	assert.Equal(t, 4*time.Second, tt.Elapsed())
	assert.Equal(t, "6s of 10s", tt.String())

	clock.Advance(7 * time.Second)
	assert.Equal(t, time.Duration(0), tt.Remaining())
	assert.True(t, tt.Expired())
}

func TestTimeoutTrackerInfinite(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	for _, tt := range []*TimeoutTracker{
		Infinite,
		NewTimeoutTracker(clock, InfiniteDuration),
		NewTimeoutTracker(clock, -1),
		nil,
	} {
		assert.True(t, tt.IsInfinite())
		assert.Equal(t, InfiniteDuration, tt.Remaining())
		assert.False(t, tt.Expired())
		assert.True(t, tt.Deadline().IsZero())
		assert.Equal(t, "infinite", tt.String())
	}
	clock.Advance(1000 * time.Hour)
	assert.False(t, NewTimeoutTracker(clock, InfiniteDuration).Expired())
}

func TestTimeoutTrackerDeadline(t *testing.T) {
	tt := NewTimeoutTracker(nil, time.Minute)
	deadline := tt.Deadline()
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}

func TestTimeoutTrackerZero(t *testing.T) {
	tt := NewTimeoutTracker(&fakeClock{now: time.Unix(1, 0)}, 0)
	assert.True(t, tt.Expired())
}
