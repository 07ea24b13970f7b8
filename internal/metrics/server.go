package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netrng"

// Server holds the server-side metrics.
type Server struct {
	activeSessions prometheus.Gauge
	peakSessions   prometheus.Gauge
	sessionsTotal  prometheus.Counter

	requests      *prometheus.CounterVec // by kind: sample, heartbeat, unknown, malformed
	bytesServed   prometheus.Counter
	deviceReads   *prometheus.CounterVec // by result: ok, error
	deviceLatency prometheus.Histogram
}

// NewServer creates and registers server metrics with reg.
func NewServer(reg prometheus.Registerer) (*Server, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}

	m := &Server{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Number of client sessions currently admitted",
		}),
		peakSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "peak_sessions",
			Help:      "Highest number of concurrently admitted sessions",
		}),
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sessions_total",
			Help:      "Total number of admitted sessions",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of requests received",
		}, []string{"kind"}),
		bytesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sample_bytes_total",
			Help:      "Total number of sample bytes sent to clients",
		}),
		deviceReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "reads_total",
			Help:      "Total number of entropy device reads",
		}, []string{"result"}),
		deviceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "device",
			Name:      "read_duration_seconds",
			Help:      "Entropy device read duration in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.activeSessions, m.peakSessions, m.sessionsTotal,
		m.requests, m.bytesServed, m.deviceReads, m.deviceLatency,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SessionOpened records an admitted session; active is the count after admission.
func (m *Server) SessionOpened(active, peak int64) {
	if m == nil {
		return
	}
	m.sessionsTotal.Inc()
	m.activeSessions.Set(float64(active))
	m.peakSessions.Set(float64(peak))
}

// SessionClosed records the active count after a session ends.
func (m *Server) SessionClosed(active int64) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(active))
}

// Request counts one request of the given kind.
func (m *Server) Request(kind string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind).Inc()
}

// SampleSent counts n sample bytes written to a client.
func (m *Server) SampleSent(n int) {
	if m == nil {
		return
	}
	m.bytesServed.Add(float64(n))
}

// ObserveDeviceRead records one device read.
func (m *Server) ObserveDeviceRead(n int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.deviceReads.WithLabelValues("error").Inc()
		return
	}
	m.deviceReads.WithLabelValues("ok").Inc()
	m.deviceLatency.Observe(elapsed.Seconds())
}
