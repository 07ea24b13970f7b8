package client

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/infincia/netrng/internal/codec"
	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/pkg/lifecycle"
	"github.com/infincia/netrng/pkg/log"
)

// Engine keeps one connection to the server and moves samples into the
// queue. When the queue is full it sends heartbeats instead of sample
// requests so the connection stays alive without pulling more entropy.
type Engine struct {
	cfg      Config
	resolver ports.Resolver
	queue    *Queue
	logger   log.Logger
	metrics  *metrics.Client
	dial     func(ctx context.Context, address string) (net.Conn, error)

	conn     net.Conn
	target   domain.Address
	stopConn func() bool
}

// NewEngine creates an engine feeding queue from the server named by resolver.
func NewEngine(cfg Config, resolver ports.Resolver, queue *Queue, logger log.Logger, m *metrics.Client) *Engine {
	d := &net.Dialer{Timeout: cfg.DialTimeout}
	return &Engine{
		cfg:      cfg,
		resolver: resolver,
		queue:    queue,
		logger:   log.OrNoop(logger),
		metrics:  m,
		dial: func(ctx context.Context, address string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", address)
		},
	}
}

// Run drives the connection until ctx is cancelled or the queue is closed.
// Connection failures are retried without limit.
func (e *Engine) Run(ctx context.Context) error {
	hard := lifecycle.NewBackoff(e.cfg.ReconnectDelay, e.cfg.ReconnectDelayMax)
	defer e.disconnect("shutdown")

	for {
		if ctx.Err() != nil {
			return nil
		}

		addr, ok := e.resolver.Resolve()
		if !ok {
			if e.conn != nil {
				e.logger.Info("server address unknown, dropping connection")
				e.disconnect("unresolved")
			}
			if err := lifecycle.SleepContext(ctx, e.cfg.IdleInterval); err != nil {
				return nil
			}
			continue
		}

		if e.conn != nil && addr != e.target {
			e.logger.Info("server address changed, reconnecting",
				log.String("from", e.target.String()),
				log.String("to", addr.String()),
			)
			e.disconnect("address_change")
		}

		if e.conn == nil {
			if err := e.connect(ctx, addr); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				delay := hard.Current()
				e.logger.Warn("connect failed",
					log.String("server", addr.String()),
					log.Duration("retry_in", delay),
					log.Err(err),
				)
				if err := hard.Sleep(ctx); err != nil {
					return nil
				}
				continue
			}
		}

		err := e.exchange(ctx)
		switch {
		case err == nil:
			hard.Reset()
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, domain.ErrQueueClosed):
			return nil
		case errors.Is(err, codec.ErrFrameTooLarge):
			delay := hard.Current()
			e.logger.Warn("stream out of sync, reconnecting",
				log.Duration("retry_in", delay),
				log.Err(err),
			)
			e.disconnect("malformed")
			if err := hard.Sleep(ctx); err != nil {
				return nil
			}
		case errors.Is(err, domain.ErrMalformedMessage), errors.Is(err, domain.ErrUnknownMessageKind):
			e.logger.Warn("discarding bad response", log.Err(err))
		case isTimeout(err):
			e.logger.Warn("receive timeout, reconnecting",
				log.Duration("retry_in", e.cfg.TimeoutDelay))
			e.disconnect("timeout")
			if err := lifecycle.SleepContext(ctx, e.cfg.TimeoutDelay); err != nil {
				return nil
			}
		default:
			delay := hard.Current()
			e.logger.Warn("connection lost",
				log.Duration("retry_in", delay),
				log.Err(err),
			)
			e.disconnect("error")
			if err := hard.Sleep(ctx); err != nil {
				return nil
			}
		}
	}
}

func (e *Engine) connect(ctx context.Context, addr domain.Address) error {
	e.logger.Debug("connecting", log.String("server", addr.String()))
	conn, err := e.dial(ctx, addr.String())
	if err != nil {
		return err
	}
	e.conn = conn
	e.target = addr
	e.stopConn = context.AfterFunc(ctx, func() { _ = conn.Close() })
	e.metrics.Connected()
	e.logger.Info("connected", log.String("server", addr.String()))
	return nil
}

func (e *Engine) disconnect(reason string) {
	if e.conn == nil {
		return
	}
	e.stopConn()
	_ = e.conn.Close()
	e.conn = nil
	e.metrics.Disconnected(reason)
	e.logger.Debug("disconnected", log.String("reason", reason))
}

// exchange performs one request/response cycle on the open connection.
func (e *Engine) exchange(ctx context.Context) error {
	req := domain.SampleRequest()
	if e.queue.Full() {
		req = domain.HeartbeatRequest()
	}

	if err := e.conn.SetDeadline(time.Now().Add(e.cfg.ReceiveTimeout)); err != nil {
		return err
	}
	if err := codec.WriteRequest(e.conn, req); err != nil {
		return err
	}
	resp, err := codec.ReadResponse(e.conn)
	if err != nil {
		return err
	}

	switch resp.Kind {
	case domain.ResponseSample:
		e.metrics.SampleReceived(len(resp.Sample))
		err := e.queue.Put(ctx, resp.Sample, e.cfg.EnqueueTimeout)
		if errors.Is(err, domain.ErrQueueFull) {
			e.metrics.SampleDiscarded()
			e.logger.Warn("queue full, sample discarded", log.Int("bytes", len(resp.Sample)))
			return nil
		}
		if err != nil {
			return err
		}
		e.metrics.QueueDepth(e.queue.Len())
		e.logger.Debug("sample queued",
			log.Int("bytes", len(resp.Sample)),
			log.Int("queue", e.queue.Len()),
		)
		return nil
	case domain.ResponseHeartbeat:
		e.metrics.Heartbeat()
		e.logger.Debug("heartbeat", log.Int("queue", e.queue.Len()))
		return lifecycle.SleepContext(ctx, e.cfg.HeartbeatPause)
	}
	return nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
