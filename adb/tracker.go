package adb

import (
	"context"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/wire"
)

// Tracker is a live sequence of snapshots read from a tracking
// service such as host:track-devices or track-jdwp.
//
// It is cold: nothing is sent to the server until the first call to
// Next. Use it like a bufio.Scanner
//
//	tr := hs.TrackDevices(ctx, adb.LongFormat)
//	defer tr.Close()
//	for tr.Next() {
//		list := tr.Value()
//		...
//	}
//	if err := tr.Err(); err != nil {
//		...
//	}
//
// Frames are read with no timeout so the sequence only ends when the
// server closes the channel, ctx is cancelled, Close is called or a
// frame can't be decoded. A tracker never reconnects; make a new one
// to start again.
type Tracker[T any] struct {
	ctx     context.Context
	runner  *ServiceRunner
	service string
	start   func(ctx context.Context) (*wire.Conn, error)
	parse   func(text string) (T, error)

	// only used by the goroutine calling Next
	started bool
	done    bool
	value   T
	err     error

	mu     sync.Mutex // protects the below
	conn   *wire.Conn
	stop   func()
	closed bool
}

func newTracker[T any](ctx context.Context, r *ServiceRunner, service string, start func(ctx context.Context) (*wire.Conn, error), parse func(text string) (T, error)) *Tracker[T] {
	return &Tracker[T]{
		ctx:     ctx,
		runner:  r,
		service: service,
		start:   start,
		parse:   parse,
	}
}

// Next waits for the next snapshot and returns true if there is one
func (t *Tracker[T]) Next() bool {
	if t.done {
		return false
	}
	if !t.started {
		t.started = true
		if !t.connect() {
			return false
		}
	}
	data, err := t.runner.readFrame(t.conn, wire.Infinite)
	if err != nil {
		if err == io.EOF || t.isClosed() {
			err = nil
		}
		t.finish(err)
		return false
	}
	if !utf8.Valid(data) {
		t.finish(&wire.ProtocolError{Msg: "tracker frame is not valid UTF-8"})
		return false
	}
	value, err := t.parse(string(data))
	if err != nil {
		t.finish(err)
		return false
	}
	t.value = value
	t.runner.s.metrics.onSnapshot(t.service)
	host.Debugf(t.service, "Snapshot of %d bytes", len(data))
	return true
}

// connect opens the channel, returning false if that failed
func (t *Tracker[T]) connect() bool {
	conn, err := t.start(t.ctx)
	if err != nil {
		t.finish(err)
		return false
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		t.finish(nil)
		return false
	}
	t.conn = conn
	t.stop = conn.CloseOnDone(t.ctx)
	t.mu.Unlock()
	host.Debugf(t.service, "Tracking")
	return true
}

// finish ends the sequence with err and releases the channel
func (t *Tracker[T]) finish(err error) {
	if ctxErr := t.ctx.Err(); ctxErr != nil && !t.isClosed() {
		err = ctxErr
	}
	t.done = true
	t.err = err
	var zero T
	t.value = zero
	t.release()
	if err != nil {
		host.Debugf(t.service, "Tracker finished: %v", err)
	} else {
		host.Debugf(t.service, "Tracker finished")
	}
}

// release closes the channel if open
func (t *Tracker[T]) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
}

func (t *Tracker[T]) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Value returns the snapshot read by the last successful Next
func (t *Tracker[T]) Value() T {
	return t.value
}

// Err returns the error which ended the sequence. It is nil if the
// server closed the channel or Close was called.
func (t *Tracker[T]) Err() error {
	return t.err
}

// Close ends the sequence and closes the channel. It may be called
// more than once and from any goroutine, and unblocks a pending Next.
func (t *Tracker[T]) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.release()
	return nil
}
