// Errors and error handling

package host

import (
	"context"
	"fmt"
	"net"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host/neterrors"
)

// Retrier is an optional interface for error as to whether the
// operation should be retried at a high level.
type Retrier interface {
	error
	Retry() bool
}

// retryError is a type of error
type retryError string

// Error interface
func (r retryError) Error() string {
	return string(r)
}

// Retry interface
func (r retryError) Retry() bool {
	return true
}

// Check interface
var _ Retrier = retryError("")

// RetryErrorf makes an error which indicates it would like to be retried
func RetryErrorf(format string, a ...interface{}) error {
	return retryError(fmt.Sprintf(format, a...))
}

// wrappedRetryError is an error wrapped so it will retry
type wrappedRetryError struct {
	error
}

// Retry interface
func (err wrappedRetryError) Retry() bool {
	return true
}

// Unwrap returns the wrapped error
func (err wrappedRetryError) Unwrap() error {
	return err.error
}

// Check interface
var _ Retrier = wrappedRetryError{error(nil)}

// RetryError makes an error which indicates it would like to be retried
func RetryError(err error) error {
	if err == nil {
		err = errors.New("needs retry")
	}
	return wrappedRetryError{err}
}

// IsRetryError returns true if err conforms to the Retry interface
// and calling the Retry method returns true.
func IsRetryError(err error) bool {
	var r Retrier
	return errors.As(err, &r) && r.Retry()
}

// Fataler is an optional interface for error as to whether the
// operation should cause the entire command to stop.
type Fataler interface {
	error
	Fatal() bool
}

// wrappedFatalError is an error wrapped so it will stop the command
type wrappedFatalError struct {
	error
}

// Fatal interface
func (err wrappedFatalError) Fatal() bool {
	return true
}

// Unwrap returns the wrapped error
func (err wrappedFatalError) Unwrap() error {
	return err.error
}

// Check interface
var _ Fataler = wrappedFatalError{error(nil)}

// FatalError makes an error which indicates it is a fatal error and
// the command should stop.
func FatalError(err error) error {
	if err == nil {
		err = errors.New("fatal error")
	}
	return wrappedFatalError{err}
}

// IsFatalError returns true if err conforms to the Fatal interface
// and calling the Fatal method returns true.
func IsFatalError(err error) bool {
	var f Fataler
	return errors.As(err, &f) && f.Fatal()
}

// ShouldRetry looks at an error and tries to work out if retrying the
// operation that caused it would be a good idea. It returns true if
// the error implements Timeout() or Temporary() and it returns true,
// or if the underlying socket error is one the ADB server gives while
// starting up.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	// Never retry a cancelled operation
	if errors.Is(err, context.Canceled) {
		return false
	}

	if IsRetryError(err) {
		return true
	}

	if neterrors.IsRetriable(err) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
		if x, ok := netErr.(interface{ Temporary() bool }); ok && x.Temporary() {
			return true
		}
	}
	return false
}
