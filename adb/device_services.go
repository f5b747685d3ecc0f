package adb

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/wire"
)

// DeviceServices are the services run on a device through a
// transport switched channel
type DeviceServices struct {
	s *Session
}

// Session returns the session the services belong to
func (ds *DeviceServices) Session() *Session {
	return ds.s
}

// Exec runs command on device without a pty, sending stdin if not nil,
// and returns its stdout.
func (ds *DeviceServices) Exec(ctx context.Context, device DeviceSelector, command string, stdin io.Reader, timeout time.Duration) ([]byte, error) {
	return ds.s.runner.RunDeviceQuery(ctx, device, "exec:"+command, stdin, timeout)
}

// Shell runs command with the legacy shell protocol which merges
// stdout and stderr.
func (ds *DeviceServices) Shell(ctx context.Context, device DeviceSelector, command string, timeout time.Duration) ([]byte, error) {
	return ds.s.runner.RunDeviceQuery(ctx, device, "shell:"+command, nil, timeout)
}

// AbbExec runs a binder command, the equivalent of "cmd <args>",
// through the Android Binder Bridge.
func (ds *DeviceServices) AbbExec(ctx context.Context, device DeviceSelector, args []string, stdin io.Reader, timeout time.Duration) ([]byte, error) {
	for _, arg := range args {
		if strings.IndexByte(arg, 0) >= 0 {
			return nil, errors.Errorf("abb argument %q contains a NUL", arg)
		}
	}
	return ds.s.runner.RunDeviceQuery(ctx, device, "abb_exec:"+strings.Join(args, "\x00"), stdin, timeout)
}

// Jdwp opens a JDWP channel to process pid on device. The caller owns
// the returned channel and must Close it.
//
// Only one JDWP channel per process can be open at a time. Older
// devices refuse a second one while newer ones hold it until the
// first is closed.
func (ds *DeviceServices) Jdwp(ctx context.Context, device DeviceSelector, pid int) (*wire.Conn, error) {
	if pid <= 0 {
		return nil, errors.Errorf("invalid process id %d", pid)
	}
	conn, err := ds.s.runner.StartDeviceQuery(ctx, device, "jdwp:"+strconv.Itoa(pid), ds.s.commandTimeout())
	if err != nil {
		return nil, errors.Wrapf(err, "opening jdwp channel to %d on %v", pid, device)
	}
	return conn, nil
}

// TrackJdwp returns a Tracker yielding the process ids of the
// debuggable processes of device every time they change.
func (ds *DeviceServices) TrackJdwp(ctx context.Context, device DeviceSelector) *Tracker[*ProcessIDList] {
	const service = "track-jdwp"
	return newTracker(ctx, ds.s.runner, service,
		func(ctx context.Context) (*wire.Conn, error) {
			return ds.s.runner.StartDeviceQuery(ctx, device, service, ds.s.commandTimeout())
		},
		func(text string) (*ProcessIDList, error) {
			return ParseProcessIDList(text), nil
		})
}

// APILevel returns the SDK level of device from ro.build.version.sdk.
// It is cached per device.
func (ds *DeviceServices) APILevel(ctx context.Context, device DeviceSelector) (int, error) {
	key := cacheKey(device, "api")
	if v, ok := ds.s.cacheGet(key); ok {
		return v.(int), nil
	}
	out, err := ds.Shell(ctx, device, "getprop ro.build.version.sdk", ds.s.commandTimeout())
	if err != nil {
		return 0, err
	}
	level, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, errors.Errorf("invalid API level %q", strings.TrimSpace(string(out)))
	}
	host.Debugf(device, "API level %d", level)
	ds.s.cacheSet(key, level)
	return level, nil
}
