package pacer

import (
	"errors"
	"time"
)

// Default is a truncated exponential attack and decay.
//
// On retries the sleep time is doubled, on non errors then sleeptime decays
// according to the decay constant as set with SetDecayConstant.
//
// The sleep never goes below that set with SetMinSleep or above that set
// with SetMaxSleep.
type Default struct {
	minSleep       time.Duration // minimum sleep time
	maxSleep       time.Duration // maximum sleep time
	decayConstant  uint          // decay constant
	attackConstant uint          // attack constant
}

// DefaultOption is the interface implemented by all options for the Default Calculator
type DefaultOption interface {
	ApplyDefault(*Default)
}

// NewDefault creates a Calculator used by Pacer as the default.
func NewDefault(opts ...DefaultOption) *Default {
	c := &Default{
		minSleep:       10 * time.Millisecond,
		maxSleep:       2 * time.Second,
		decayConstant:  2,
		attackConstant: 1,
	}
	c.Update(opts...)
	return c
}

// Update applies the Calculator options.
func (c *Default) Update(opts ...DefaultOption) {
	for _, opt := range opts {
		opt.ApplyDefault(c)
	}
}

// Calculate takes the current Pacer state and returns the sleep time after which
// the next Pacer call will be done.
func (c *Default) Calculate(state State) time.Duration {
	if t, ok := IsRetryAfter(state.LastError); ok {
		if t < c.minSleep {
			return c.minSleep
		}
		return t
	}

	if state.ConsecutiveRetries > 0 {
		sleepTime := c.maxSleep
		if c.attackConstant != 0 {
			sleepTime = (state.SleepTime << c.attackConstant) / ((1 << c.attackConstant) - 1)
		}
		if sleepTime > c.maxSleep {
			sleepTime = c.maxSleep
		}
		return sleepTime
	}
	sleepTime := (state.SleepTime<<c.decayConstant - state.SleepTime) >> c.decayConstant
	if sleepTime < c.minSleep {
		sleepTime = c.minSleep
	}
	return sleepTime
}

// MinSleep configures the minimum sleep time of a Calculator
type MinSleep time.Duration

// ApplyDefault updates the value on the Calculator
func (o MinSleep) ApplyDefault(c *Default) {
	c.minSleep = time.Duration(o)
}

// MaxSleep configures the maximum sleep time of a Calculator
type MaxSleep time.Duration

// ApplyDefault updates the value on the Calculator
func (o MaxSleep) ApplyDefault(c *Default) {
	c.maxSleep = time.Duration(o)
}

// DecayConstant configures the decay constant time of a Calculator
type DecayConstant uint

// ApplyDefault updates the value on the Calculator
func (o DecayConstant) ApplyDefault(c *Default) {
	c.decayConstant = uint(o)
}

// AttackConstant configures the attack constant of a Calculator
type AttackConstant uint

// ApplyDefault updates the value on the Calculator
func (o AttackConstant) ApplyDefault(c *Default) {
	c.attackConstant = uint(o)
}

// RetryAfterError is returned by a Paced function when the caller
// knows how long to wait before trying again, such as after starting
// the ADB server.
type RetryAfterError struct {
	error
	retryAfter time.Duration
}

// RetryAfterErrorf makes an error which indicates it would like to be
// retried after the given duration.
func RetryAfterErrorf(err error, retryAfter time.Duration) error {
	return &RetryAfterError{
		error:      err,
		retryAfter: retryAfter,
	}
}

// Unwrap returns the underlying error
func (r *RetryAfterError) Unwrap() error {
	return r.error
}

// IsRetryAfter returns true if err is a RetryAfterError and the
// duration to wait.
func IsRetryAfter(err error) (retryAfter time.Duration, isRetryAfter bool) {
	var r *RetryAfterError
	if errors.As(err, &r) {
		return r.retryAfter, true
	}
	return 0, false
}
