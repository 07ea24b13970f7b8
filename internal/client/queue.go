package client

import (
	"context"
	"sync"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

// Queue is a bounded FIFO of samples between the network loop and the sink
// feeder. Once closed, Put and Get fail with domain.ErrQueueClosed.
type Queue struct {
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding at most size samples.
func NewQueue(size int) *Queue {
	return &Queue{
		ch:   make(chan []byte, size),
		done: make(chan struct{}),
	}
}

// Len returns the number of queued samples.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Full reports whether the queue is at capacity.
func (q *Queue) Full() bool { return len(q.ch) >= cap(q.ch) }

// Put appends b, waiting up to timeout for room. A timeout of zero waits
// until ctx is done. Returns domain.ErrQueueFull when the wait expires.
func (q *Queue) Put(ctx context.Context, b []byte, timeout time.Duration) error {
	if q.closed() {
		return domain.ErrQueueClosed
	}

	// Fast path.
	select {
	case q.ch <- b:
		return nil
	default:
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case q.ch <- b:
		return nil
	case <-q.done:
		return domain.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return domain.ErrQueueFull
	}
}

// Get removes and returns the oldest sample, blocking until one is
// available, the queue is closed, or ctx is done.
func (q *Queue) Get(ctx context.Context) ([]byte, error) {
	if q.closed() {
		return nil, domain.ErrQueueClosed
	}
	select {
	case b := <-q.ch:
		return b, nil
	case <-q.done:
		return nil, domain.ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close wakes all waiters. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

func (q *Queue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
