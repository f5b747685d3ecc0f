package adb

import (
	"context"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/neterrors"
	"github.com/adbctl/adbctl/lib/pacer"
)

// Dialer opens a new channel to the ADB server
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// serverStartDelay is how long to wait before dialing again after
// starting the server
const serverStartDelay = 200 * time.Millisecond

// TCPDialer connects to the ADB server over TCP, starting it with the
// adb binary if nothing is listening and the options allow it.
type TCPDialer struct {
	opt   *Options
	pacer *pacer.Pacer

	startMu      sync.Mutex
	startTried   bool
	startErr     error
	startCommand func(ctx context.Context) error
}

// NewTCPDialer makes a dialer for opt
func NewTCPDialer(ctx context.Context, opt *Options) *TCPDialer {
	d := &TCPDialer{
		opt:   opt,
		pacer: host.NewPacer(ctx, pacer.NewDefault(pacer.MinSleep(20*time.Millisecond), pacer.MaxSleep(2*time.Second))),
	}
	d.startCommand = d.runStartServer
	return d
}

// runStartServer runs "adb -P port start-server" which returns once
// the server is accepting connections.
func (d *TCPDialer) runStartServer(ctx context.Context) error {
	host.Logf(d.opt, "Starting adb server with %q", d.opt.ADBPath)
	cmd := exec.CommandContext(ctx, d.opt.ADBPath, "-P", strconv.Itoa(d.opt.Port), "start-server")
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return host.FatalError(errors.Wrapf(err, "adb server not running and %q not found", d.opt.ADBPath))
		}
		return errors.Wrapf(err, "failed to start adb server: %s", out)
	}
	return nil
}

// startServer starts the server the first time it is called and
// returns the result of that attempt afterwards.
func (d *TCPDialer) startServer(ctx context.Context) error {
	d.startMu.Lock()
	defer d.startMu.Unlock()
	if !d.startTried {
		d.startTried = true
		d.startErr = d.startCommand(ctx)
	}
	return d.startErr
}

// Dial connects to the server, retrying errors which are likely to
// be transient.
func (d *TCPDialer) Dial(ctx context.Context) (conn net.Conn, err error) {
	dialer := net.Dialer{}
	if t := timeout(d.opt.ConnectTimeout); t > 0 {
		dialer.Timeout = t
	}
	addr := d.opt.Addr()
	err = d.pacer.Call(ctx, func() (bool, error) {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			return false, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if neterrors.IsConnRefused(err) {
			if !d.opt.StartServer {
				return false, err
			}
			if startErr := d.startServer(ctx); startErr != nil {
				return false, startErr
			}
			return true, pacer.RetryAfterErrorf(err, serverStartDelay)
		}
		return host.ShouldRetry(err), err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to adb server at %s", addr)
	}
	host.Debugf(d.opt, "Connected")
	return conn, nil
}
