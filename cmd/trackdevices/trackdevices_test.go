package trackdevices

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/adb/adbtest"
)

// syncBuffer is a bytes.Buffer safe to read while being written
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newSession(t *testing.T) (*adbtest.Server, *adb.Session) {
	srv, err := adbtest.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	opt := adb.DefaultOptions(context.Background())
	opt.Host = srv.Host()
	opt.Port = srv.Port()
	opt.StartServer = false
	s, err := adb.NewSession(context.Background(), opt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return srv, s
}

func TestTrack(t *testing.T) {
	srv, s := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Track(ctx, s.HostServices(), adb.ShortFormat, nil, &out)
	}()

	assert.Eventually(t, func() bool { return strings.Count(out.String(), "---") == 1 }, 5*time.Second, 10*time.Millisecond)
	srv.AddDevice(&adbtest.Device{Serial: "1234"})
	assert.Eventually(t, func() bool { return strings.Contains(out.String(), "1234\tdevice\n") }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Track didn't return when cancelled")
	}
	assert.Eventually(t, func() bool { return srv.OpenConnections() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestTrackReconnect(t *testing.T) {
	srv, s := newSession(t)
	srv.Handle("host:track-devices", func(c *adbtest.Conn, service string) {
		_ = c.Okay()
		_ = c.Frame("1234\tdevice\n")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Track(ctx, s.HostServices(), adb.ShortFormat, rate.NewLimiter(rate.Inf, 1), &out)
	}()
	assert.Eventually(t, func() bool { return strings.Count(out.String(), "1234\tdevice\n") >= 3 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Track didn't return when cancelled")
	}
}

func TestTrackNoReconnect(t *testing.T) {
	srv, s := newSession(t)
	srv.Handle("host:track-devices", func(c *adbtest.Conn, service string) {
		_ = c.Okay()
		_ = c.Frame("1234\tdevice\n")
	})
	var out syncBuffer
	err := Track(context.Background(), s.HostServices(), adb.ShortFormat, nil, &out)
	assert.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), "1234\tdevice\n"))
}
