// Package pm installs and uninstalls Android packages through the
// package manager session commands.
package pm

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/lib/pacer"
	"github.com/adbctl/adbctl/lib/readers"
)

// legacyAPILevel is the first API level with install sessions
const legacyAPILevel = 21

// Client drives the package manager of one device
type Client struct {
	s      *adb.Session
	ds     *adb.DeviceServices
	device adb.DeviceSelector
	driver Driver
	tokens *pacer.TokenDispenser
}

// NewClient makes a Client for device choosing how to reach its
// package manager from the features it supports
func NewClient(ctx context.Context, s *adb.Session, device adb.DeviceSelector) (*Client, error) {
	features, err := s.HostServices().AvailableFeatures(ctx, device)
	if err != nil {
		return nil, errors.Wrap(err, "reading device features")
	}
	ds := s.DeviceServices()
	c := &Client{
		s:      s,
		ds:     ds,
		device: device,
		driver: NewDriver(ds, device, features),
		tokens: pacer.NewTokenDispenser(s.Options().WriteConcurrency),
	}
	host.Debugf(device, "Using %v for package manager", c.driver)
	return c, nil
}

// Driver returns the driver in use
func (c *Client) Driver() Driver {
	return c.driver
}

// String describes the client for logging
func (c *Client) String() string {
	return c.device.String()
}

// record counts op in the session metrics
func (c *Client) record(op string, err error) {
	c.s.Metrics().OnPMOperation(op, err)
}

// Create opens an install session for packages totalling totalSize
// bytes. options are passed to install-create as is.
func (c *Client) Create(ctx context.Context, options []string, totalSize int64) (_ *InstallSession, err error) {
	defer func() { c.record("create", err) }()
	is := newInstallSession()
	args := append([]string{"install-create"}, options...)
	if totalSize > 0 {
		args = append(args, "-S", strconv.FormatInt(totalSize, 10))
	}
	out, err := c.driver.Run(ctx, args, nil, c.s.CommandTimeout())
	if err != nil {
		return nil, errors.Wrap(err, "install-create")
	}
	id, err := ParseSessionID(out)
	if err != nil {
		return nil, err
	}
	is.open(id)
	host.Debugf(c, "Created %v", is)
	return is, nil
}

// Write streams size bytes of content into the session under
// filename, which is sanitized first.
func (c *Client) Write(ctx context.Context, is *InstallSession, filename string, size int64, content io.Reader) (err error) {
	defer func() { c.record("write", err) }()
	if err := is.check("write to", StateSessionOpen, StateWriting); err != nil {
		return err
	}
	name := SanitizeFilename(filename)
	in := readers.NewCountingReader(content)
	args := []string{"install-write", "-S", strconv.FormatInt(size, 10), is.ID, name, "-"}
	out, err := c.driver.Run(ctx, args, in, c.s.InstallTimeout())
	if err == nil {
		err = parseWriteResult(out)
	}
	if err == nil && int64(in.BytesRead()) != size {
		err = errors.Errorf("sent %d bytes of %s but expected %d", in.BytesRead(), name, size)
	}
	if err != nil {
		is.set(StateFailed)
		return errors.Wrapf(err, "install-write %s", name)
	}
	is.set(StateWriting)
	host.Debugf(c, "Wrote %s (%d bytes) to %v", name, size, is)
	return nil
}

// Commit finishes the session. If the device refuses the session is
// abandoned and the error returned is an *InstallError.
func (c *Client) Commit(ctx context.Context, is *InstallSession) (result *InstallResult, err error) {
	defer func() { c.record("commit", err) }()
	if err := is.check("commit", StateSessionOpen, StateWriting); err != nil {
		return nil, err
	}
	out, err := c.driver.Run(ctx, []string{"install-commit", is.ID}, nil, c.s.InstallTimeout())
	if err == nil {
		result, err = ParseInstallResult(out)
	}
	if err != nil {
		is.set(StateFailed)
		c.cleanup(ctx, is, "commit")
		return nil, err
	}
	is.set(StateCommitted)
	host.Infof(c, "Committed %v", is)
	return result, nil
}

// Abandon drops a session which hasn't been committed
func (c *Client) Abandon(ctx context.Context, is *InstallSession) (err error) {
	defer func() { c.record("abandon", err) }()
	if err := is.check("abandon", StateSessionOpen, StateWriting, StateFailed); err != nil {
		return err
	}
	is.set(StateFailed)
	return c.abandon(ctx, is)
}

func (c *Client) abandon(ctx context.Context, is *InstallSession) error {
	out, err := c.driver.Run(ctx, []string{"install-abandon", is.ID}, nil, c.s.CommandTimeout())
	if err == nil {
		err = parseAbandonResult(out)
	}
	if err != nil {
		return errors.Wrapf(err, "install-abandon %s", is.ID)
	}
	host.Debugf(c, "Abandoned %v", is)
	return nil
}

// cleanupTimeout bounds the abandon after a failure when commands
// have no timeout of their own
const cleanupTimeout = 30 * time.Second

// detached keeps the values of a context but not its cancellation
type detached struct{ context.Context }

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detached) Done() <-chan struct{}       { return nil }
func (detached) Err() error                  { return nil }

// cleanup abandons is after a failed step. It runs even when ctx was
// cancelled, which is often why the step failed, and only logs errors.
func (c *Client) cleanup(ctx context.Context, is *InstallSession, step string) {
	timeout := c.s.CommandTimeout()
	if timeout <= 0 {
		timeout = cleanupTimeout
	}
	ctx, cancel := context.WithTimeout(detached{ctx}, timeout)
	defer cancel()
	if err := c.abandon(ctx, is); err != nil {
		host.Errorf(c, "Failed to abandon %v after failed %s: %v", is, step, err)
	}
}

// writeAPK opens apk and writes it into the session
func (c *Client) writeAPK(ctx context.Context, is *InstallSession, apk *APK) error {
	if err := c.tokens.GetContext(ctx); err != nil {
		return err
	}
	defer c.tokens.Put()
	in, err := apk.Open()
	if err != nil {
		return errors.Wrapf(err, "opening %s", apk.Name)
	}
	defer func() { _ = in.Close() }()
	return c.Write(ctx, is, apk.Name, apk.Size, in)
}

// Install installs apks as one package, splits included, with
// options passed to the package manager.
//
// Devices older than API 21 have no install sessions so the single
// APK is pushed and installed with "pm install".
func (c *Client) Install(ctx context.Context, apks []*APK, options []string) (*InstallResult, error) {
	if len(apks) == 0 {
		return nil, errors.New("no APKs to install")
	}
	if d, ok := c.driver.(*execDriver); ok && d.command == "pm" {
		level, err := c.ds.APILevel(ctx, c.device)
		if err != nil {
			return nil, err
		}
		if level < legacyAPILevel {
			return c.legacyInstall(ctx, apks, options)
		}
	}

	is, err := c.Create(ctx, options, totalSize(apks))
	if err != nil {
		return nil, err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for _, apk := range apks {
		apk := apk
		g.Go(func() error {
			return c.writeAPK(gCtx, is, apk)
		})
	}
	if err := g.Wait(); err != nil {
		is.set(StateFailed)
		c.cleanup(ctx, is, "write")
		return nil, err
	}
	return c.Commit(ctx, is)
}

// Uninstall removes packageName. flags such as "-k" are passed to the
// package manager.
//
// An error is only returned if the command couldn't be run. A device
// refusing is reported with UninstallFailure in the result.
func (c *Client) Uninstall(ctx context.Context, packageName string, flags []string) (result *UninstallResult, err error) {
	defer func() {
		if err == nil && result.Status != UninstallSuccess {
			c.record("uninstall", errors.New(result.ErrorCode))
			return
		}
		c.record("uninstall", err)
	}()
	args := append([]string{"uninstall"}, flags...)
	args = append(args, packageName)
	out, err := c.driver.Run(ctx, args, nil, c.s.CommandTimeout())
	if err != nil {
		return nil, errors.Wrapf(err, "uninstall %s", packageName)
	}
	result = ParseUninstallResult(out)
	host.Debugf(c, "Uninstall %s: %v", packageName, result.Status)
	return result, nil
}
