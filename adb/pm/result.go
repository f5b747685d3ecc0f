package pm

import (
	"strings"
)

const (
	successMarker = "Success"
	failurePrefix = "Failure ["
	sessionPrefix = "Success: created install session ["
)

// InstallResult is the outcome of a successful install
type InstallResult struct {
	Output string
}

// UninstallStatus says whether an uninstall worked
type UninstallStatus int

// Uninstall statuses
const (
	UninstallSuccess UninstallStatus = iota
	UninstallFailure
)

// String turns a status into a string
func (s UninstallStatus) String() string {
	if s == UninstallSuccess {
		return "success"
	}
	return "failure"
}

// UninstallResult is the outcome of an uninstall the device carried
// out. A refusal is reported here, not as an error.
type UninstallResult struct {
	Status       UninstallStatus
	Output       string
	ErrorCode    string
	ErrorMessage string
}

func trimLineEndings(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// splitLines splits s into lines without their line endings
func splitLines(s string) []string {
	s = trimLineEndings(s)
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines
}

// parseFailure parses a line of the form
//
//	Failure [<content>]
//
// The message is all of content and the code is content up to the
// first colon, or all of it if there is none.
func parseFailure(line string) (code, message string, ok bool) {
	line = trimLineEndings(line)
	if !strings.HasPrefix(line, failurePrefix) {
		return "", "", false
	}
	end := strings.LastIndexByte(line, ']')
	if end < len(failurePrefix) {
		return "", "", false
	}
	message = line[len(failurePrefix):end]
	code = message
	if i := strings.IndexByte(message, ':'); i >= 0 {
		code = message[:i]
	}
	return code, message, true
}

// ParseSessionID reads the id from the output of install-create
//
//	Success: created install session [<id>]
func ParseSessionID(output string) (string, error) {
	for _, line := range splitLines(output) {
		if !strings.HasPrefix(line, sessionPrefix) || !strings.HasSuffix(line, "]") {
			continue
		}
		id := line[len(sessionPrefix) : len(line)-1]
		if id != "" {
			return id, nil
		}
	}
	return "", newInstallError(output)
}

// ParseInstallResult reads the output of install-commit. Both no
// output and "Success" mean the install worked.
func ParseInstallResult(output string) (*InstallResult, error) {
	switch trimLineEndings(output) {
	case "", successMarker:
		return &InstallResult{Output: output}, nil
	}
	return nil, newInstallError(output)
}

// parseWriteResult reads the output of install-write which is
// "Success: streamed <n> bytes" or nothing on newer devices
func parseWriteResult(output string) error {
	trimmed := trimLineEndings(output)
	if trimmed == "" || trimmed == successMarker || strings.HasPrefix(trimmed, successMarker+": ") {
		return nil
	}
	return newInstallError(output)
}

// parseLegacyInstallResult reads the output of "pm install" which may
// print progress before the final Success line
func parseLegacyInstallResult(output string) (*InstallResult, error) {
	lines := splitLines(output)
	if len(lines) > 0 && lines[len(lines)-1] == successMarker {
		return &InstallResult{Output: output}, nil
	}
	return nil, newInstallError(output)
}

// parseAbandonResult reads the output of install-abandon
func parseAbandonResult(output string) error {
	_, err := ParseInstallResult(output)
	return err
}

// ParseUninstallResult reads the output of uninstall. Only "Success"
// is a success, anything else is reported as a failure with the raw
// output kept.
func ParseUninstallResult(output string) *UninstallResult {
	if trimLineEndings(output) == successMarker {
		return &UninstallResult{Status: UninstallSuccess, Output: successMarker}
	}
	ie := newInstallError(output)
	return &UninstallResult{
		Status:       UninstallFailure,
		Output:       output,
		ErrorCode:    ie.ErrorCode,
		ErrorMessage: ie.ErrorMessage,
	}
}
