package netrng

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/infincia/netrng/internal/client"
	"github.com/infincia/netrng/internal/discovery"
	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/internal/sink"
	"github.com/infincia/netrng/pkg/log"
)

// Client fetches samples from a netrng server and feeds them to a sink.
// Use NewClient() to create an instance, then Start() to begin fetching.
type Client struct {
	service
	config  ClientConfig
	metrics *metrics.Client
}

// NewClient creates a Client in StateStopped.
// Returns an error if configuration is invalid.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	if o.resolver == nil && cfg.Discovery == DiscoveryStatic {
		if _, err := domain.ParseAddress(cfg.ServerAddress); err != nil {
			return nil, fmt.Errorf("%w: server address %q: %v", domain.ErrInvalidConfig, cfg.ServerAddress, err)
		}
	}
	if o.registry == nil && cfg.MetricsAddress != "" {
		o.registry = prometheus.NewRegistry()
	}

	m, err := metrics.NewClient(registerer(o.registry))
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	c := &Client{config: cfg, metrics: m}
	c.init("client", o)
	return c, nil
}

// Start resolves the discovery backend, launches the sink process and begins
// fetching samples in the background. The client keeps reconnecting until
// Stop is called; a dead sink does not stop it.
func (c *Client) Start(ctx context.Context) error {
	return c.start(ctx, c.setup)
}

// setup builds the client stack. Called with c.mu held.
func (c *Client) setup(ctx context.Context) (runFunc, error) {
	resolver, err := c.resolver(ctx)
	if err != nil {
		return nil, err
	}

	out := c.opts.sink
	if out == nil {
		out, err = c.startSink(ctx)
		if err != nil {
			return nil, err
		}
	}

	cl, err := client.New(c.config.internal(), resolver, out,
		client.WithLogger(c.logger),
		client.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, err
	}

	c.serveMetrics(ctx, c.config.MetricsAddress)

	return cl.Run, nil
}

// resolver returns the configured discovery backend and starts its watcher.
func (c *Client) resolver(ctx context.Context) (ports.Resolver, error) {
	if c.opts.resolver != nil {
		return c.opts.resolver, nil
	}

	switch c.config.Discovery {
	case DiscoveryFile:
		w := discovery.NewFileWatcher(c.config.DiscoveryFile, c.logger)
		if err := w.Load(); err != nil {
			return nil, err
		}
		c.goWorker(ctx, "server address watcher", w.Run)
		return w, nil
	case DiscoveryZeroconf:
		b := discovery.NewBrowser(c.logger)
		c.goWorker(ctx, "zeroconf browser", b.Run)
		return b, nil
	default:
		addr, err := domain.ParseAddress(c.config.ServerAddress)
		if err != nil {
			return nil, fmt.Errorf("%w: server address %q: %v", domain.ErrInvalidConfig, c.config.ServerAddress, err)
		}
		return discovery.NewStatic(addr), nil
	}
}

// startSink launches SinkCommand, or discards samples when it is empty.
func (c *Client) startSink(ctx context.Context) (ports.Sink, error) {
	argv := sink.ParseCommand(c.config.SinkCommand)
	if len(argv) == 0 {
		c.logger.Warn("no sink command configured, samples will be discarded")
		return sink.Discard, nil
	}

	p, err := sink.Start(ctx, argv, c.logger)
	if err != nil {
		return nil, err
	}
	c.onClose(func() {
		if err := p.Close(); err != nil {
			c.logger.Debug("sink exited", log.Err(err))
		}
	})
	return p, nil
}
