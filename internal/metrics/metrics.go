// Package metrics provides Prometheus instruments for the world node's
// connection lifecycle, handshake outcomes, and bus throughput.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "worldnode"

// Metrics holds every Prometheus instrument the connection lifecycle and
// handshake emit.
type Metrics struct {
	ConnectionsActive  prometheus.Gauge
	ConnectionsTotal   prometheus.Counter
	ConnectionsClosed  *prometheus.CounterVec
	HandshakeSuccesses prometheus.Counter
	HandshakeFailures  *prometheus.CounterVec
	HandshakeLatency   prometheus.Histogram
	ForwardedPackets   prometheus.Counter
	AddonCRCMismatches prometheus.Counter
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Default returns the process-wide Metrics instance, registered against the
// default Prometheus registry.
func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates a Metrics instance registered against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open world-node connections",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total connections accepted",
		}),
		ConnectionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Total connections closed by reason",
		}, []string{"reason"}),
		HandshakeSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_successes_total",
			Help:      "Total successful AUTH_SESSION/REDIRECT_CLIENT_PROOF handshakes",
		}),
		HandshakeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Total handshake failures by error kind",
		}, []string{"kind"}),
		HandshakeLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_latency_seconds",
			Help:      "Latency from AUTH_SESSION receipt to AUTH_RESPONSE emission",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		ForwardedPackets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarded_packets_total",
			Help:      "Total non-built-in opcodes forwarded to the message bus",
		}),
		AddonCRCMismatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "addon_crc_mismatches_total",
			Help:      "Total addon entries reporting a CRC other than the canonical value",
		}),
	}
}

// RecordConnect increments the accepted/active connection counters.
func (m *Metrics) RecordConnect() {
	m.ConnectionsActive.Inc()
	m.ConnectionsTotal.Inc()
}

// RecordDisconnect decrements the active gauge and tags the close reason.
func (m *Metrics) RecordDisconnect(reason string) {
	m.ConnectionsActive.Dec()
	m.ConnectionsClosed.WithLabelValues(reason).Inc()
}

// RecordHandshakeSuccess records a completed handshake and its latency.
func (m *Metrics) RecordHandshakeSuccess(latencySeconds float64) {
	m.HandshakeSuccesses.Inc()
	m.HandshakeLatency.Observe(latencySeconds)
}

// RecordHandshakeFailure tags a handshake failure by error kind.
func (m *Metrics) RecordHandshakeFailure(kind string) {
	m.HandshakeFailures.WithLabelValues(kind).Inc()
}

// RecordForwardedPacket records one FORWARD_PACKET message produced.
func (m *Metrics) RecordForwardedPacket() {
	m.ForwardedPackets.Inc()
}

// RecordAddonCRCMismatch records one addon entry whose CRC diverged from
// the canonical value.
func (m *Metrics) RecordAddonCRCMismatch() {
	m.AddonCRCMismatches.Inc()
}
