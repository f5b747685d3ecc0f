// Package adb is a client for the ADB server host protocol
package adb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/wire"
)

// ErrSessionClosed is returned by every operation on a closed Session
var ErrSessionClosed = errors.New("adb session is closed")

// Session holds what is shared by all the services of one ADB server:
// options, the dialer, the clock, per device caches and metrics.
type Session struct {
	opt     *Options
	dialer  Dialer
	clock   wire.Clock
	cache   *cache.Cache
	noCache bool
	metrics *Metrics
	closed  int32
	runner  *ServiceRunner
}

// SessionOption customises a Session
type SessionOption func(s *Session)

// WithDialer replaces the TCP dialer
func WithDialer(d Dialer) SessionOption {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithClock replaces the system clock used for timeouts
func WithClock(c wire.Clock) SessionOption {
	return func(s *Session) {
		s.clock = c
	}
}

// WithMetrics replaces DefaultMetrics
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

// NewSession makes a session talking to the server described by opt
func NewSession(ctx context.Context, opt *Options, opts ...SessionOption) (*Session, error) {
	if opt == nil {
		opt = DefaultOptions(ctx)
	}
	ttl := time.Duration(opt.FeaturesCacheTTL)
	if opt.FeaturesCacheTTL == host.DurationOff {
		ttl = cache.NoExpiration
	}
	s := &Session{
		opt:     opt,
		clock:   wire.SystemClock{},
		cache:   cache.New(ttl, 2*ttl),
		noCache: opt.FeaturesCacheTTL <= 0,
		metrics: DefaultMetrics,
	}
	for _, o := range opts {
		o(s)
	}
	if s.dialer == nil {
		s.dialer = NewTCPDialer(ctx, opt)
	}
	s.runner = &ServiceRunner{s: s}
	host.Debugf(opt, "New session")
	return s, nil
}

// Options returns the options the session was made with
func (s *Session) Options() *Options {
	return s.opt
}

// Metrics returns the metrics the session records to which may be nil
func (s *Session) Metrics() *Metrics {
	return s.metrics
}

// Runner returns the service runner
func (s *Session) Runner() *ServiceRunner {
	return s.runner
}

// HostServices returns the host services
func (s *Session) HostServices() *HostServices {
	return &HostServices{s: s}
}

// DeviceServices returns the device services
func (s *Session) DeviceServices() *DeviceServices {
	return &DeviceServices{s: s}
}

// Close releases the caches. Channels already handed out stay open
// and must be closed by their owners.
func (s *Session) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	s.cache.Flush()
	host.Debugf(s.opt, "Session closed")
	return nil
}

// checkOpen returns ErrSessionClosed once Close has been called
func (s *Session) checkOpen() error {
	if atomic.LoadInt32(&s.closed) != 0 {
		return ErrSessionClosed
	}
	return nil
}

// newTracker starts a countdown of d on the session clock
func (s *Session) newTracker(d time.Duration) *wire.TimeoutTracker {
	return wire.NewTimeoutTracker(s.clock, d)
}

// commandTimeout is the timeout for one-shot queries
func (s *Session) commandTimeout() time.Duration {
	return timeout(s.opt.CommandTimeout)
}

// CommandTimeout is the timeout for one-shot commands run on behalf
// of the session, or -1 for none
func (s *Session) CommandTimeout() time.Duration {
	return s.commandTimeout()
}

// InstallTimeout is the timeout for streaming a package to a device,
// or -1 for none
func (s *Session) InstallTimeout() time.Duration {
	return timeout(s.opt.InstallTimeout)
}

// cacheGet looks up a per device value. A features_cache_ttl of zero
// or less disables caching.
func (s *Session) cacheGet(key string) (interface{}, bool) {
	if s.noCache {
		return nil, false
	}
	return s.cache.Get(key)
}

// cacheSet stores a per device value for features_cache_ttl
func (s *Session) cacheSet(key string, v interface{}) {
	if s.noCache {
		return
	}
	s.cache.SetDefault(key, v)
}

// cacheKey makes a key for a per device cached value
func cacheKey(device DeviceSelector, name string) string {
	return device.String() + "/" + name
}
