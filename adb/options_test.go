package adb

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/configmap"
)

func TestDefaultOptions(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "")
	ctx, ci := host.AddConfig(context.Background())
	ci.Timeout = 7 * time.Second
	opt := DefaultOptions(ctx)
	assert.Equal(t, "127.0.0.1", opt.Host)
	assert.Equal(t, DefaultPort, opt.Port)
	assert.True(t, opt.StartServer)
	assert.Equal(t, host.Duration(7*time.Second), opt.CommandTimeout)
	assert.Equal(t, "127.0.0.1:5037", opt.Addr())
}

func TestDefaultOptionsPortFromEnv(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "5039")
	assert.Equal(t, 5039, DefaultOptions(context.Background()).Port)
}

func TestNewOptions(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "")
	m := configmap.Simple{
		"host":              "10.0.0.2",
		"port":              "6037",
		"start_server":      "false",
		"command_timeout":   "1m30s",
		"install_timeout":   "off",
		"write_concurrency": "0",
	}
	opt, err := NewOptions(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", opt.Host)
	assert.Equal(t, 6037, opt.Port)
	assert.False(t, opt.StartServer)
	assert.Equal(t, host.Duration(90*time.Second), opt.CommandTimeout)
	assert.Equal(t, host.DurationOff, opt.InstallTimeout)
	assert.Equal(t, 1, opt.WriteConcurrency)
	assert.Equal(t, "10.0.0.2:6037", opt.Addr())

	assert.Equal(t, 90*time.Second, timeout(opt.CommandTimeout))
	assert.Equal(t, time.Duration(-1), timeout(opt.InstallTimeout))
}

func TestNewOptionsErrors(t *testing.T) {
	_, err := NewOptions(context.Background(), configmap.Simple{"port": "many"})
	assert.Error(t, err)
	_, err = NewOptions(context.Background(), configmap.Simple{"port": "70000"})
	assert.Error(t, err)
}

// refusedPort returns a port nothing listens on
func refusedPort(t *testing.T) int {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestDialerStartsServerOnce(t *testing.T) {
	ctx, ci := host.AddConfig(context.Background())
	ci.LowLevelRetries = 3
	opt := DefaultOptions(ctx)
	opt.Port = refusedPort(t)
	d := NewTCPDialer(ctx, opt)
	starts := 0
	d.startCommand = func(ctx context.Context) error {
		starts++
		return nil
	}

	_, err := d.Dial(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, starts)

	_, err = d.Dial(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, starts)
}

func TestDialerStartServerFails(t *testing.T) {
	ctx := context.Background()
	opt := DefaultOptions(ctx)
	opt.Port = refusedPort(t)
	d := NewTCPDialer(ctx, opt)
	d.startCommand = func(ctx context.Context) error {
		return host.FatalError(errors.New("no adb"))
	}

	_, err := d.Dial(ctx)
	require.Error(t, err)
	assert.True(t, host.IsFatalError(err))
	assert.Contains(t, err.Error(), "no adb")
}

func TestDialerNoStartServer(t *testing.T) {
	ctx := context.Background()
	opt := DefaultOptions(ctx)
	opt.Port = refusedPort(t)
	opt.StartServer = false
	d := NewTCPDialer(ctx, opt)
	d.startCommand = func(ctx context.Context) error {
		t.Fatal("server should not be started")
		return nil
	}
	_, err := d.Dial(ctx)
	require.Error(t, err)
}

func TestDialerConnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			_ = c.Close()
		}
	}()

	ctx := context.Background()
	opt := DefaultOptions(ctx)
	opt.Port = ln.Addr().(*net.TCPAddr).Port
	conn, err := NewTCPDialer(ctx, opt).Dial(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
