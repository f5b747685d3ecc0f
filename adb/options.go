package adb

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/host/config/configmap"
	"github.com/adbctl/adbctl/host/config/configstruct"
	"github.com/adbctl/adbctl/lib/env"
)

// DefaultPort is the port the ADB server listens on unless
// ANDROID_ADB_SERVER_PORT says otherwise
const DefaultPort = 5037

// Options describes how to reach one ADB server. It is filled from a
// section of the config file by configstruct.
type Options struct {
	Host             string        `config:"host"`
	Port             int           `config:"port"`
	ADBPath          string        `config:"adb_path"`
	StartServer      bool          `config:"start_server"`
	ConnectTimeout   host.Duration `config:"connect_timeout"`
	CommandTimeout   host.Duration `config:"command_timeout"`
	InstallTimeout   host.Duration `config:"install_timeout"`
	FeaturesCacheTTL host.Duration `config:"features_cache_ttl"`
	WriteConcurrency int           `config:"write_concurrency"`
}

// DefaultOptions returns the options used when nothing is configured,
// taking the timeouts from the global config in ctx.
func DefaultOptions(ctx context.Context) *Options {
	ci := host.GetConfig(ctx)
	port := DefaultPort
	if s, ok := os.LookupEnv("ANDROID_ADB_SERVER_PORT"); ok && s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			port = p
		} else {
			host.Errorf(nil, "Ignoring invalid ANDROID_ADB_SERVER_PORT=%q", s)
		}
	}
	return &Options{
		Host:             "127.0.0.1",
		Port:             port,
		ADBPath:          env.ADBPath(),
		StartServer:      true,
		ConnectTimeout:   host.Duration(ci.ConnectTimeout),
		CommandTimeout:   host.Duration(ci.Timeout),
		InstallTimeout:   host.Duration(5 * time.Minute),
		FeaturesCacheTTL: host.Duration(5 * time.Minute),
		WriteConcurrency: 4,
	}
}

// NewOptions reads the options from m over the defaults
func NewOptions(ctx context.Context, m configmap.Getter) (*Options, error) {
	opt := DefaultOptions(ctx)
	if err := configstruct.Set(m, opt); err != nil {
		return nil, errors.Wrap(err, "reading adb server options")
	}
	if opt.Port <= 0 || opt.Port > 65535 {
		return nil, errors.Errorf("invalid adb server port %d", opt.Port)
	}
	if opt.WriteConcurrency < 1 {
		opt.WriteConcurrency = 1
	}
	return opt, nil
}

// Addr returns the host:port of the ADB server
func (opt *Options) Addr() string {
	return net.JoinHostPort(opt.Host, strconv.Itoa(opt.Port))
}

// String describes the options for logging
func (opt *Options) String() string {
	return fmt.Sprintf("adb server %s", opt.Addr())
}

// timeout converts a configured duration to one a wire.TimeoutTracker
// understands, where "off" means wait forever.
func timeout(d host.Duration) time.Duration {
	if d == host.DurationOff || d <= 0 {
		return -1
	}
	return time.Duration(d)
}
