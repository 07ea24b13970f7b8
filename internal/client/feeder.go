package client

import (
	"context"

	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/pkg/log"
)

// Feeder drains the queue into the sink.
type Feeder struct {
	queue   *Queue
	sink    ports.Sink
	logger  log.Logger
	metrics *metrics.Client
}

// NewFeeder creates a feeder writing samples from queue to sink.
func NewFeeder(queue *Queue, sink ports.Sink, logger log.Logger, m *metrics.Client) *Feeder {
	return &Feeder{queue: queue, sink: sink, logger: log.OrNoop(logger), metrics: m}
}

// Run writes samples until ctx is cancelled, the queue is closed, or the
// sink fails. A failed sink stops only the feeder: the queue then fills up
// and the engine falls back to heartbeats.
func (f *Feeder) Run(ctx context.Context) error {
	for {
		b, err := f.queue.Get(ctx)
		if err != nil {
			return nil
		}
		n, err := f.sink.Write(b)
		if err != nil {
			f.logger.Error("sink write failed, feeder stopping", log.Err(err))
			return nil
		}
		f.metrics.SinkWritten(n)
		f.metrics.QueueDepth(f.queue.Len())
	}
}
