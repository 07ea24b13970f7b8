package netrng

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/pkg/log"
)

// Option configures optional behavior of a Server or Client.
type Option func(*options)

// options holds the optional configuration shared by Server and Client.
type options struct {
	logger       log.Logger
	eventHandler EventHandler
	registry     *prometheus.Registry
	source       ports.EntropySource
	resolver     ports.Resolver
	sink         ports.Sink
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for lifecycle events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithMetricsRegistry registers service metrics with reg.
// If MetricsAddress is set and no registry is given, a private one is created.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithEntropySource serves samples from src instead of opening Device.
func WithEntropySource(src ports.EntropySource) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithResolver replaces the configured discovery backend.
func WithResolver(r ports.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithSink delivers samples to s instead of starting SinkCommand.
func WithSink(s ports.Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = log.OrNoop(o.logger)
	return o
}
