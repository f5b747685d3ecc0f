package wire

import (
	"fmt"
	"os"
	"time"
)

// ProtocolError is returned when the peer sends bytes which don't fit
// the ADB framing, such as a status which is neither OKAY nor FAIL or a
// length prefix which isn't hex.
type ProtocolError struct {
	Msg string
}

// Error satisfies the error interface
func (e *ProtocolError) Error() string {
	return "adb protocol error: " + e.Msg
}

// protocolErrorf makes a *ProtocolError
func protocolErrorf(format string, args ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, args...)}
}

// FailResponseError is returned when the server answers a service
// request with FAIL. Message is the text the server sent, unchanged.
type FailResponseError struct {
	Service string
	Message string
}

// Error satisfies the error interface
func (e *FailResponseError) Error() string {
	if e.Service == "" {
		return "adb server failure: " + e.Message
	}
	return fmt.Sprintf("adb server failure for %q: %s", e.Service, e.Message)
}

// TimeoutError is returned when a read or write didn't complete within
// its timeout.
type TimeoutError struct {
	Op    string
	After time.Duration
	Err   error
}

// Error satisfies the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %v", e.Op, e.After)
}

// Timeout marks this as a timeout in the same way as net.Error
func (e *TimeoutError) Timeout() bool {
	return true
}

// Is makes errors.Is(err, os.ErrDeadlineExceeded) true
func (e *TimeoutError) Is(target error) bool {
	return target == os.ErrDeadlineExceeded
}

// Unwrap returns the underlying I/O error if there was one
func (e *TimeoutError) Unwrap() error {
	return e.Err
}
