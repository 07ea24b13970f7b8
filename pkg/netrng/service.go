package netrng

import (
	"context"
	"errors"
	"sync"

	"github.com/infincia/netrng/internal/metrics"
	"github.com/infincia/netrng/pkg/lifecycle"
	"github.com/infincia/netrng/pkg/log"
)

// runFunc is the blocking body of a service.
type runFunc func(ctx context.Context) error

// service holds the lifecycle plumbing shared by Server and Client.
type service struct {
	name      string
	opts      options
	lifecycle lifecycle.Manager
	logger    log.Logger

	mu      sync.Mutex
	closers []func()
	done    chan struct{}
	err     error
}

func (s *service) init(name string, o options) {
	s.name = name
	s.opts = o
	s.logger = o.logger
	s.lifecycle = lifecycle.NewManager(o.logger, &eventEmitterWrapper{handler: o.eventHandler})
	s.done = make(chan struct{})
	close(s.done)
}

// start runs setup synchronously and then run in the background.
// Setup errors are returned directly and leave the service crashed.
func (s *service) start(ctx context.Context, setup func(ctx context.Context) (runFunc, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lifecycle.CanStart() {
		return lifecycle.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(lifecycle.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)
	s.closers = nil
	s.err = nil

	run, err := setup(runCtx)
	if err != nil {
		cancel()
		s.runClosers()
		_ = s.lifecycle.TransitionTo(lifecycle.StateCrashed, err.Error())
		return err
	}

	done := make(chan struct{})
	s.done = done
	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()
		defer close(done)

		if err := s.lifecycle.TransitionTo(lifecycle.StateRunning, s.name+" started"); err != nil {
			// Stop won the race; run unwinds on the cancelled context.
			s.logger.Debug("not entering running state", log.Err(err))
			_ = run(runCtx)
			return
		}

		err := run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(s.name+" failed", log.Err(err))
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			_ = s.lifecycle.TransitionTo(lifecycle.StateCrashed, err.Error())
		}
	}()

	return nil
}

// goWorker runs fn as a tracked background worker. Errors are logged.
func (s *service) goWorker(ctx context.Context, what string, fn runFunc) {
	s.lifecycle.AddWorker()
	go func() {
		defer s.lifecycle.WorkerDone()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error(what+" failed", log.Err(err))
		}
	}()
}

// serveMetrics starts the /metrics endpoint when addr is set.
func (s *service) serveMetrics(ctx context.Context, addr string) {
	if addr == "" || s.opts.registry == nil {
		return
	}
	s.goWorker(ctx, "metrics endpoint", func(ctx context.Context) error {
		return metrics.Serve(ctx, addr, s.opts.registry, s.logger)
	})
}

// onClose queues a cleanup for Stop. Callers hold s.mu.
func (s *service) onClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// Stop gracefully shuts the service down.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (s *service) Stop() error {
	s.mu.Lock()

	if !s.lifecycle.CanStop() {
		s.mu.Unlock()
		return lifecycle.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(lifecycle.StateStopping, "Stop() called"); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lifecycle.Cancel()
	s.mu.Unlock()

	err := s.lifecycle.WaitWithTimeout(lifecycle.ShutdownTimeout)

	s.mu.Lock()
	s.runClosers()
	s.mu.Unlock()

	if err != nil {
		_ = s.lifecycle.TransitionTo(lifecycle.StateCrashed, "shutdown timeout")
	} else {
		_ = s.lifecycle.TransitionTo(lifecycle.StateStopped, "graceful shutdown")
	}
	return err
}

// runClosers releases resources in reverse order. Callers hold s.mu.
func (s *service) runClosers() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (s *service) Status() State {
	return s.lifecycle.State()
}

// Done is closed when the main goroutine of the current run exits.
func (s *service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error that crashed the service, if any.
func (s *service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
