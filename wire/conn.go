// Package wire implements the ADB host protocol framing on top of a
// net.Conn: length prefixed frames, the OKAY/FAIL handshake and
// per-operation timeouts.
package wire

import (
	"context"
	"io"
	"net"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/lib/pool"
)

// headerPool holds the 4 byte scratch buffers used for status words
// and length prefixes, shared by every Conn.
var headerPool = pool.New(4, 64)

// Conn is one channel to the ADB server. It is owned by a single
// logical operation; only Close and CloseOnDone may be called from
// other goroutines.
type Conn struct {
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

// NewConn wraps c
func NewConn(c net.Conn) *Conn {
	return &Conn{
		conn:   c,
		closed: make(chan struct{}),
	}
}

// NetConn returns the underlying connection
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

// String returns the address of the peer
func (c *Conn) String() string {
	return c.conn.RemoteAddr().String()
}

// timeoutError converts a deadline error into a *TimeoutError
func timeoutError(op string, t *TimeoutTracker, err error) error {
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return &TimeoutError{Op: op, After: t.Duration(), Err: err}
	}
	return err
}

func (c *Conn) setReadDeadline(op string, t *TimeoutTracker) error {
	if t.Expired() {
		return &TimeoutError{Op: op, After: t.Duration()}
	}
	return c.conn.SetReadDeadline(t.Deadline())
}

func (c *Conn) setWriteDeadline(op string, t *TimeoutTracker) error {
	if t.Expired() {
		return &TimeoutError{Op: op, After: t.Duration()}
	}
	return c.conn.SetWriteDeadline(t.Deadline())
}

// ReadExactly fills p or returns an error.
//
// A clean end of stream before the first byte is io.EOF, in the middle
// of p it is io.ErrUnexpectedEOF.
func (c *Conn) ReadExactly(p []byte, t *TimeoutTracker) error {
	if err := c.setReadDeadline("read", t); err != nil {
		return err
	}
	_, err := io.ReadFull(c.conn, p)
	return timeoutError("read", t, err)
}

// Read reads up to len(p) bytes
func (c *Conn) Read(p []byte, t *TimeoutTracker) (int, error) {
	if err := c.setReadDeadline("read", t); err != nil {
		return 0, err
	}
	n, err := c.conn.Read(p)
	return n, timeoutError("read", t, err)
}

// ReadAll reads until the peer closes the channel
func (c *Conn) ReadAll(t *TimeoutTracker) ([]byte, error) {
	if err := c.setReadDeadline("read", t); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(c.conn)
	return data, timeoutError("read", t, err)
}

// WriteExactly writes all of p or returns an error
func (c *Conn) WriteExactly(p []byte, t *TimeoutTracker) error {
	if err := c.setWriteDeadline("write", t); err != nil {
		return err
	}
	n, err := c.conn.Write(p)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	return timeoutError("write", t, err)
}

// CopyFrom copies r to the channel until r returns io.EOF
func (c *Conn) CopyFrom(r io.Reader, t *TimeoutTracker) (int64, error) {
	if err := c.setWriteDeadline("write", t); err != nil {
		return 0, err
	}
	n, err := io.Copy(c.conn, r)
	return n, timeoutError("write", t, err)
}

// CloseWrite half closes the channel so the peer sees end of input.
// It is a no-op for connections which can't do that.
func (c *Conn) CloseWrite() error {
	if cw, ok := c.conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return nil
}

// Close the channel. It is safe to call more than once and from
// several goroutines; only the first call closes.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// IsClosed returns true once Close has been called
func (c *Conn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// CloseOnDone closes the channel as soon as ctx is done, which
// unblocks any pending read or write. Call the returned function to
// stop watching ctx once the operation has finished.
func (c *Conn) CloseOnDone(ctx context.Context) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}
	finished := make(chan struct{})
	var once sync.Once
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-finished:
		case <-c.closed:
		}
	}()
	return func() {
		once.Do(func() { close(finished) })
	}
}
