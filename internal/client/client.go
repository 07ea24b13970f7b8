// Package client pulls entropy samples from a netrng server and feeds them
// to a local sink.
package client

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/pkg/log"
)

// Client runs the transport engine and the sink feeder side by side.
type Client struct {
	cfg     Config
	queue   *Queue
	engine  *Engine
	feeder  *Feeder
	logger  log.Logger
	metrics *metrics.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the metrics sink. A nil value disables metrics.
func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client reading from the server named by resolver and
// writing to sink.
func New(cfg Config, resolver ports.Resolver, sink ports.Sink, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, queue: NewQueue(cfg.QueueSize)}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = log.OrNoop(c.logger)
	c.engine = NewEngine(cfg, resolver, c.queue, c.logger.With(log.String("task", "network")), c.metrics)
	c.feeder = NewFeeder(c.queue, sink, c.logger.With(log.String("task", "feeder")), c.metrics)
	return c, nil
}

// Queue returns the sample queue shared by the engine and the feeder.
func (c *Client) Queue() *Queue { return c.queue }

// Run blocks until ctx is cancelled. The feeder stopping on a dead sink does
// not stop the network loop.
func (c *Client) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.engine.Run(gctx) })
	g.Go(func() error { return c.feeder.Run(gctx) })

	c.logger.Info("client started", log.Int("queue_size", c.cfg.QueueSize))
	err := g.Wait()
	c.queue.Close()
	c.logger.Info("client stopped")
	return err
}
