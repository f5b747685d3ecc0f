package adb

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/lib/readers"
	"github.com/adbctl/adbctl/wire"
)

// ServiceRunner opens channels to the ADB server and performs the
// request and OKAY/FAIL handshake for each service.
//
// Every method which fails closes the channel it opened. A channel
// returned to the caller is owned by the caller who must Close it.
type ServiceRunner struct {
	s *Session
}

// open dials a new channel
func (r *ServiceRunner) open(ctx context.Context) (*wire.Conn, error) {
	if err := r.s.checkOpen(); err != nil {
		return nil, err
	}
	nc, err := r.s.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return wire.NewConn(nc), nil
}

// handshake sends one service request on conn and reads the status
func (r *ServiceRunner) handshake(conn *wire.Conn, service string, t *wire.TimeoutTracker) error {
	host.Debugf(service, "Sending request (timeout %v)", t)
	err := conn.WriteRequest(service, t)
	if err == nil {
		err = conn.ReadOkay(service, t)
	}
	r.s.metrics.onHandshake(err)
	if err != nil {
		host.Debugf(service, "Handshake failed: %v", err)
		return err
	}
	host.Debugf(service, "OKAY")
	return nil
}

// startQuery opens a channel and performs a handshake for each of
// services in turn, all within t.
func (r *ServiceRunner) startQuery(ctx context.Context, t *wire.TimeoutTracker, services ...string) (conn *wire.Conn, err error) {
	conn, err = r.open(ctx)
	if err != nil {
		return nil, err
	}
	stop := conn.CloseOnDone(ctx)
	defer stop()
	for _, service := range services {
		if err = r.handshake(conn, service, t); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
	}
	if ctx.Err() != nil {
		_ = conn.Close()
		return nil, ctx.Err()
	}
	return conn, nil
}

// StartHostQuery opens a channel, sends service and waits for OKAY.
// The returned channel is positioned just after the handshake.
//
// A FAIL answer is returned as a *wire.FailResponseError and a status
// which is neither OKAY nor FAIL as a *wire.ProtocolError.
func (r *ServiceRunner) StartHostQuery(ctx context.Context, service string, timeout time.Duration) (*wire.Conn, error) {
	return r.startQuery(ctx, r.s.newTracker(timeout), service)
}

// StartDeviceQuery switches a new channel to device then starts
// service on it.
func (r *ServiceRunner) StartDeviceQuery(ctx context.Context, device DeviceSelector, service string, timeout time.Duration) (*wire.Conn, error) {
	return r.startQuery(ctx, r.s.newTracker(timeout), device.TransportService(), service)
}

// ReadLengthPrefixedData reads one frame from conn
func (r *ServiceRunner) ReadLengthPrefixedData(conn *wire.Conn, timeout time.Duration) ([]byte, error) {
	return r.readFrame(conn, r.s.newTracker(timeout))
}

func (r *ServiceRunner) readFrame(conn *wire.Conn, t *wire.TimeoutTracker) ([]byte, error) {
	data, err := conn.ReadLengthPrefixed(t)
	if err != nil {
		return nil, err
	}
	r.s.metrics.onFrame()
	return data, nil
}

// withConn runs fn on conn while ctx is watched, closing conn
// afterwards. A cancelled ctx wins over the error fn returns.
func withConn(ctx context.Context, conn *wire.Conn, fn func() error) error {
	stop := conn.CloseOnDone(ctx)
	err := fn()
	stop()
	closeErr := conn.Close()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil && closeErr != nil {
		host.Debugf(conn, "Close failed: %v", closeErr)
	}
	return err
}

// RunHostQuery runs a host service which answers with a single
// length prefixed string.
func (r *ServiceRunner) RunHostQuery(ctx context.Context, service string, timeout time.Duration) (reply string, err error) {
	t := r.s.newTracker(timeout)
	conn, err := r.startQuery(ctx, t, service)
	if err != nil {
		return "", err
	}
	err = withConn(ctx, conn, func() error {
		data, err := r.readFrame(conn, t)
		reply = string(data)
		return err
	})
	if err != nil {
		return "", errors.Wrapf(err, "reading reply to %q", service)
	}
	return reply, nil
}

// RunHostQueryNoResponse runs a host service whose only answer is the
// handshake.
func (r *ServiceRunner) RunHostQueryNoResponse(ctx context.Context, service string, timeout time.Duration) error {
	conn, err := r.StartHostQuery(ctx, service, timeout)
	if err != nil {
		return err
	}
	return withConn(ctx, conn, func() error { return nil })
}

// runStatusQuery runs the last of services, which sends a second
// status once the request has been carried out, as forward and
// reverse:forward do. The reply frame, if any, is returned when
// readReply is set.
func (r *ServiceRunner) runStatusQuery(ctx context.Context, readReply bool, timeout time.Duration, services ...string) (reply string, err error) {
	t := r.s.newTracker(timeout)
	conn, err := r.startQuery(ctx, t, services...)
	if err != nil {
		return "", err
	}
	service := services[len(services)-1]
	err = withConn(ctx, conn, func() error {
		if err := conn.ReadOkay(service, t); err != nil {
			return err
		}
		if !readReply {
			return nil
		}
		data, err := r.readFrame(conn, t)
		if err == io.EOF {
			// older servers send nothing
			return nil
		}
		reply = string(data)
		return err
	})
	return reply, err
}

// RunDeviceQuery runs service on device, streams stdin to it if set
// then half closes the channel and returns everything the device
// sends until it closes its end.
func (r *ServiceRunner) RunDeviceQuery(ctx context.Context, device DeviceSelector, service string, stdin io.Reader, timeout time.Duration) (out []byte, err error) {
	t := r.s.newTracker(timeout)
	conn, err := r.startQuery(ctx, t, device.TransportService(), service)
	if err != nil {
		return nil, err
	}
	err = withConn(ctx, conn, func() error {
		if stdin != nil {
			if _, err := conn.CopyFrom(readers.NewContextReader(ctx, stdin), t); err != nil {
				return errors.Wrap(err, "sending input")
			}
			if err := conn.CloseWrite(); err != nil {
				return errors.Wrap(err, "closing input")
			}
		}
		var err error
		out, err = conn.ReadAll(t)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "running %q on %v", service, device)
	}
	return out, nil
}
