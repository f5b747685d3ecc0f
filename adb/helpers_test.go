package adb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/adb"
	"github.com/adbctl/adbctl/adb/adbtest"
	"github.com/adbctl/adbctl/host"
)

// newTestSession starts a fake server and a session talking to it
func newTestSession(t *testing.T, opts ...adb.SessionOption) (*adbtest.Server, *adb.Session) {
	srv, err := adbtest.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	opt := adb.DefaultOptions(context.Background())
	opt.Host = srv.Host()
	opt.Port = srv.Port()
	opt.StartServer = false
	opt.CommandTimeout = host.Duration(5 * time.Second)
	s, err := adb.NewSession(context.Background(), opt, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return srv, s
}

// addTestDevice connects the device used by most tests
func addTestDevice(srv *adbtest.Server) *adbtest.Device {
	return srv.AddDevice(&adbtest.Device{
		Serial:   "1234",
		Product:  "test1",
		Model:    "test2",
		Device:   "model",
		APILevel: 30,
	})
}

// assertAllClosed waits for the server to see every connection closed
func assertAllClosed(t *testing.T, srv *adbtest.Server) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return srv.OpenConnections() == 0
	}, 5*time.Second, 10*time.Millisecond, "connections left open: %d", srv.OpenConnections())
}
