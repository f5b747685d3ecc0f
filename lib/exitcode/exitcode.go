// Package exitcode exports adbctl's exit status numbers.
package exitcode

const (
	// Success is returned when adbctl finished without error.
	Success = 0
	// UsageError is returned when there was a syntax or usage error in the arguments.
	UsageError = 1
	// UncategorizedError is returned for any error not categorised otherwise,
	// including a device refusing an install or uninstall.
	UncategorizedError = 2
	// FatalError is returned for errors retrying won't resolve, such as
	// the adb binary missing when the server has to be started.
	FatalError = 7
)
