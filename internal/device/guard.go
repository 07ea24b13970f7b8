// Package device serializes access to the single hardware entropy source.
package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/pkg/log"
)

// Observer receives the outcome of every device read.
// *metrics.Server satisfies it.
type Observer interface {
	ObserveDeviceRead(n int, elapsed time.Duration, err error)
}

// Guard wraps the one open handle to the entropy device. At most one read is
// in flight at any time, across all callers.
type Guard struct {
	mu sync.Mutex
	r  io.Reader

	closer    io.Closer
	closeOnce sync.Once
	closeErr  error

	limiter  *rate.Limiter
	observer Observer
	logger   log.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithRateLimit caps sustained device reads at bytesPerSecond.
// Zero or negative disables the limit.
func WithRateLimit(bytesPerSecond int) Option {
	return func(g *Guard) {
		if bytesPerSecond <= 0 {
			g.limiter = nil
			return
		}
		g.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
	}
}

// WithObserver reports each read to o.
func WithObserver(o Observer) Option {
	return func(g *Guard) { g.observer = o }
}

// WithLogger sets the logger used for device events.
func WithLogger(l log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// Open opens the device at path for sequential reads.
func Open(path string, opts ...Option) (*Guard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open entropy device %s: %v: %w", path, err, domain.ErrDeviceFailure)
	}
	g := New(f, opts...)
	g.closer = f
	g.logger.Info("entropy device opened", log.String("path", path))
	return g, nil
}

// New wraps r. If r is an io.Closer, Close releases it.
func New(r io.Reader, opts ...Option) *Guard {
	g := &Guard{r: r, logger: log.NoopLogger{}}
	if c, ok := r.(io.Closer); ok {
		g.closer = c
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = log.OrNoop(g.logger)
	return g
}

// ReadSample returns a fresh buffer holding exactly n bytes from the device.
// The rate limit, if any, is waited out before the lock is taken; the lock is
// held only for the device read itself.
func (g *Guard) ReadSample(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("read sample: invalid size %d", n)
	}
	if g.limiter != nil {
		if err := g.waitLimit(ctx, n); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, n)

	g.mu.Lock()
	start := time.Now()
	_, err := io.ReadFull(g.r, buf)
	elapsed := time.Since(start)
	g.mu.Unlock()

	if g.observer != nil {
		g.observer.ObserveDeviceRead(n, elapsed, err)
	}
	if err != nil {
		g.logger.Error("entropy device read failed", log.Int("bytes", n), log.Err(err))
		return nil, fmt.Errorf("read %d bytes: %v: %w", n, err, domain.ErrDeviceFailure)
	}
	return buf, nil
}

// waitLimit waits for n bytes worth of tokens. Requests larger than the
// bucket are split so that a sample bigger than one second of budget still
// goes through.
func (g *Guard) waitLimit(ctx context.Context, n int) error {
	burst := g.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := g.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Close releases the device handle. It is safe to call more than once.
func (g *Guard) Close() error {
	g.closeOnce.Do(func() {
		if g.closer != nil {
			g.closeErr = g.closer.Close()
		}
	})
	return g.closeErr
}
