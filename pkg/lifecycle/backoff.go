package lifecycle

import (
	"context"
	"math/rand"
	"time"
)

// Backoff implements exponential backoff with optional jitter.
// It is not safe for concurrent use.
type Backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
	jitter  float64
}

// NewBackoff creates a new backoff with the given initial and max durations.
// A max below initial is raised to initial, which gives a constant delay.
func NewBackoff(initial, max time.Duration) *Backoff {
	if max < initial {
		max = initial
	}
	return &Backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// WithJitter sets the jitter fraction (0.2 means ±20%) and returns b.
func (b *Backoff) WithJitter(fraction float64) *Backoff {
	if fraction < 0 {
		fraction = 0
	}
	b.jitter = fraction
	return b
}

// Next returns the delay for this attempt and advances the backoff.
func (b *Backoff) Next() time.Duration {
	d := b.current
	if b.jitter > 0 {
		d = time.Duration(float64(d) + float64(d)*b.jitter*(rand.Float64()*2-1))
	}

	// Increase for next time
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Sleep waits for the next delay or until ctx is done.
// Returns ctx.Err() if the wait was cut short.
func (b *Backoff) Sleep(ctx context.Context) error {
	return SleepContext(ctx, b.Next())
}

// Reset resets the backoff to the initial duration.
func (b *Backoff) Reset() {
	b.current = b.initial
}

// Current returns the current backoff duration.
func (b *Backoff) Current() time.Duration {
	return b.current
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
