package pm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCodeUnknown is the code given to an InstallError when the
// output had no Failure [...] line to take one from
const ErrorCodeUnknown = "UNKNOWN"

// ErrInvalidSessionState is returned when an operation is applied to
// an install session in a state which doesn't allow it
var ErrInvalidSessionState = errors.New("invalid install session state")

// InstallError is returned when the package manager refuses one step
// of an install. ErrorCode is the part of the failure before the
// first colon, ErrorMessage the whole bracketed text.
type InstallError struct {
	ErrorCode    string
	ErrorMessage string
	Output       string
}

// Error satisfies the error interface
func (e *InstallError) Error() string {
	if e.ErrorMessage == e.ErrorCode {
		return fmt.Sprintf("install failed: %s", e.ErrorCode)
	}
	return fmt.Sprintf("install failed: %s (%s)", e.ErrorMessage, e.ErrorCode)
}

// newInstallError makes an InstallError from the output of a failed
// command
func newInstallError(output string) *InstallError {
	for _, line := range splitLines(output) {
		if code, message, ok := parseFailure(line); ok {
			return &InstallError{ErrorCode: code, ErrorMessage: message, Output: output}
		}
	}
	return &InstallError{
		ErrorCode:    ErrorCodeUnknown,
		ErrorMessage: trimLineEndings(output),
		Output:       output,
	}
}
