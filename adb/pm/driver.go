package pm

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/adbctl/adbctl/adb"
)

// Device features which decide how package manager commands are run
const (
	FeatureAbbExec = "abb_exec"
	FeatureCmd     = "cmd"
)

// Driver runs a package manager command such as "install-create" on a
// device and returns its output.
type Driver interface {
	Run(ctx context.Context, args []string, stdin io.Reader, timeout time.Duration) (string, error)
	String() string
}

// abbDriver sends commands to the package service over abb_exec
type abbDriver struct {
	ds     *adb.DeviceServices
	device adb.DeviceSelector
}

func (d *abbDriver) Run(ctx context.Context, args []string, stdin io.Reader, timeout time.Duration) (string, error) {
	out, err := d.ds.AbbExec(ctx, d.device, append([]string{"package"}, args...), stdin, timeout)
	return string(out), err
}

func (d *abbDriver) String() string {
	return "abb_exec:package"
}

// execDriver runs a command line such as "cmd package" or "pm" with
// exec:
type execDriver struct {
	ds      *adb.DeviceServices
	device  adb.DeviceSelector
	command string
}

func (d *execDriver) Run(ctx context.Context, args []string, stdin io.Reader, timeout time.Duration) (string, error) {
	out, err := d.ds.Exec(ctx, d.device, commandLine(d.command, args), stdin, timeout)
	return string(out), err
}

func (d *execDriver) String() string {
	return "exec:" + d.command
}

// NewDriver picks the best way of reaching the package manager given
// the features available for device
func NewDriver(ds *adb.DeviceServices, device adb.DeviceSelector, features []string) Driver {
	has := func(name string) bool {
		for _, f := range features {
			if f == name {
				return true
			}
		}
		return false
	}
	switch {
	case has(FeatureAbbExec):
		return &abbDriver{ds: ds, device: device}
	case has(FeatureCmd):
		return &execDriver{ds: ds, device: device, command: "cmd package"}
	}
	return &execDriver{ds: ds, device: device, command: "pm"}
}

// commandLine joins command and args quoting the args for the device
// shell where needed
func commandLine(command string, args []string) string {
	var b strings.Builder
	b.WriteString(command)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(shellQuote(arg))
	}
	return b.String()
}

// shellQuote single quotes s unless it is made only of characters
// the shell leaves alone
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_.-/:=,+@%", r):
		default:
			safe = false
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
