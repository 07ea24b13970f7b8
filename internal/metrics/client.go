package metrics

import "github.com/prometheus/client_golang/prometheus"

// Client holds the client-side metrics.
type Client struct {
	queueDepth      prometheus.Gauge
	samples         prometheus.Counter
	sampleBytes     prometheus.Counter
	discarded       prometheus.Counter
	heartbeats      prometheus.Counter
	connects        prometheus.Counter
	disconnects     *prometheus.CounterVec // by reason: timeout, error, address_change, unresolved
	sinkWrittenByte prometheus.Counter
}

// NewClient creates and registers client metrics with reg.
func NewClient(reg prometheus.Registerer) (*Client, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Client{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "queue_depth",
			Help:      "Samples waiting for the sink",
		}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "samples_received_total",
			Help:      "Total number of samples received from the server",
		}),
		sampleBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "sample_bytes_received_total",
			Help:      "Total number of sample bytes received from the server",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "samples_discarded_total",
			Help:      "Samples dropped because the queue stayed full",
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "heartbeats_total",
			Help:      "Total number of heartbeat exchanges",
		}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "connects_total",
			Help:      "Total number of successful connections to a server",
		}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "disconnects_total",
			Help:      "Total number of dropped connections",
		}, []string{"reason"}),
		sinkWrittenByte: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "bytes_written_total",
			Help:      "Total number of bytes written to the sink",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.queueDepth, m.samples, m.sampleBytes, m.discarded,
		m.heartbeats, m.connects, m.disconnects, m.sinkWrittenByte,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// QueueDepth sets the current queue length.
func (m *Client) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// SampleReceived counts one sample of n bytes.
func (m *Client) SampleReceived(n int) {
	if m == nil {
		return
	}
	m.samples.Inc()
	m.sampleBytes.Add(float64(n))
}

// SampleDiscarded counts a sample dropped on enqueue timeout.
func (m *Client) SampleDiscarded() {
	if m == nil {
		return
	}
	m.discarded.Inc()
}

// Heartbeat counts one heartbeat exchange.
func (m *Client) Heartbeat() {
	if m == nil {
		return
	}
	m.heartbeats.Inc()
}

// Connected counts a successful dial.
func (m *Client) Connected() {
	if m == nil {
		return
	}
	m.connects.Inc()
}

// Disconnected counts a dropped connection.
func (m *Client) Disconnected(reason string) {
	if m == nil {
		return
	}
	m.disconnects.WithLabelValues(reason).Inc()
}

// SinkWritten counts n bytes handed to the sink.
func (m *Client) SinkWritten(n int) {
	if m == nil {
		return
	}
	m.sinkWrittenByte.Add(float64(n))
}
