package adb

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adbctl/adbctl/wire"
)

// Metrics counts protocol level events
type Metrics struct {
	Handshakes *prometheus.CounterVec
	Frames     prometheus.Counter
	Snapshots  *prometheus.CounterVec
	PMOps      *prometheus.CounterVec
}

// NewMetrics creates a new metrics instance, the instance shall be
// assigned to DefaultMetrics before any session is created.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adb",
			Name:      "handshakes_total",
			Help:      "Service handshakes by result.",
		}, []string{"result"}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adb",
			Name:      "frames_read_total",
			Help:      "Length prefixed frames read.",
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adb",
			Name:      "tracker_snapshots_total",
			Help:      "Snapshots delivered by trackers.",
		}, []string{"service"}),
		PMOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pm",
			Name:      "operations_total",
			Help:      "Package manager operations by result.",
		}, []string{"op", "result"}),
	}
}

// DefaultMetrics is used by new sessions unless overridden
var DefaultMetrics = (*Metrics)(nil)

// Collectors returns all prometheus metrics as collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{
		m.Handshakes,
		m.Frames,
		m.Snapshots,
		m.PMOps,
	}
}

// resultLabel classifies err for the result label
func resultLabel(err error) string {
	if err == nil {
		return "okay"
	}
	var (
		failErr    *wire.FailResponseError
		protoErr   *wire.ProtocolError
		timeoutErr *wire.TimeoutError
	)
	switch {
	case errors.As(err, &failErr):
		return "fail"
	case errors.As(err, &protoErr):
		return "protocol_error"
	case errors.As(err, &timeoutErr):
		return "timeout"
	}
	return "error"
}

func (m *Metrics) onHandshake(err error) {
	if m == nil {
		return
	}
	m.Handshakes.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) onFrame() {
	if m == nil {
		return
	}
	m.Frames.Inc()
}

func (m *Metrics) onSnapshot(service string) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(service).Inc()
}

// OnPMOperation records a package manager operation
func (m *Metrics) OnPMOperation(op string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.PMOps.WithLabelValues(op, result).Inc()
}
