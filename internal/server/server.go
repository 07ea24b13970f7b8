// Package server accepts client connections and answers sample and
// heartbeat requests from the shared entropy device.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/internal/ports"
	"github.com/infincia/netrng/pkg/lifecycle"
	"github.com/infincia/netrng/pkg/log"
)

// Retry bounds after a failed Accept.
const (
	acceptRetryMin = 5 * time.Millisecond
	acceptRetryMax = time.Second
)

// Server serves entropy samples to at most MaxClients concurrent sessions.
type Server struct {
	cfg     Config
	source  ports.EntropySource
	logger  log.Logger
	metrics *metrics.Server

	admission *semaphore.Weighted
	active    atomic.Int64
	peak      atomic.Int64

	mu   sync.Mutex
	addr net.Addr
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics sink. A nil value disables metrics.
func WithMetrics(m *metrics.Server) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server that reads samples from source.
func New(cfg Config, source ports.EntropySource, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("server: nil entropy source")
	}
	s := &Server{
		cfg:       cfg,
		source:    source,
		admission: semaphore.NewWeighted(int64(cfg.MaxClients)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.OrNoop(s.logger)
	return s, nil
}

// Active returns the number of sessions currently admitted.
func (s *Server) Active() int64 { return s.active.Load() }

// Peak returns the highest number of sessions admitted at once.
func (s *Server) Peak() int64 { return s.peak.Load() }

// Addr returns the listener address once serving has started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Serve accepts connections on ln until ctx is cancelled or the entropy
// device fails. A slot in the admission pool is taken before each Accept,
// so connections beyond MaxClients wait in the listen backlog. Accept
// errors are retried with backoff until ln is closed.
//
// Serve returns nil after a cancellation, or the device error that stopped it.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var (
		fatalOnce sync.Once
		fatalErr  error
	)
	onFatal := func(err error) {
		fatalOnce.Do(func() {
			fatalErr = err
			cancel()
		})
	}

	s.logger.Info("server listening",
		log.String("address", ln.Addr().String()),
		log.Int("max_clients", s.cfg.MaxClients),
		log.Int("sample_size", s.cfg.SampleSizeBytes),
	)

	var wg sync.WaitGroup
	retry := lifecycle.NewBackoff(acceptRetryMin, acceptRetryMax)
	for {
		if err := s.admission.Acquire(ctx, 1); err != nil {
			break
		}

		conn, err := ln.Accept()
		if err != nil {
			s.admission.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			// Descriptor exhaustion and similar errors clear up on their own.
			s.logger.Warn("accept failed, retrying",
				log.Duration("retry_in", retry.Current()),
				log.Err(err),
			)
			if err := retry.Sleep(ctx); err != nil {
				break
			}
			continue
		}
		retry.Reset()

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.admission.Release(1)
			s.handle(ctx, conn, onFatal)
		}()
	}
	cancel()

	if err := lifecycle.Wait(&wg, s.cfg.ShutdownTimeout); err != nil {
		s.logger.Warn("sessions did not finish before shutdown timeout",
			log.Duration("timeout", s.cfg.ShutdownTimeout))
	}

	// Synchronizes with a session that reported a failure.
	fatalOnce.Do(func() {})
	if fatalErr != nil {
		s.logger.Error("server stopped on device failure", log.Err(fatalErr))
		return fatalErr
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) admit() (active int64) {
	active = s.active.Add(1)
	for {
		peak := s.peak.Load()
		if active <= peak || s.peak.CompareAndSwap(peak, active) {
			break
		}
	}
	s.metrics.SessionOpened(active, s.peak.Load())
	return active
}

func (s *Server) release() {
	s.metrics.SessionClosed(s.active.Add(-1))
}
