package client

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

// recordingSink keeps every write.
type recordingSink struct {
	mu     sync.Mutex
	writes [][]byte
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (s *recordingSink) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.writes...)
}

// deadSink fails every write the way an exited subprocess does.
type deadSink struct {
	mu    sync.Mutex
	calls int
}

func (s *deadSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return 0, fmt.Errorf("write: broken pipe: %w", domain.ErrSinkClosed)
}

func TestFeeder_WritesInOrder(t *testing.T) {
	q := NewQueue(5)
	sink := &recordingSink{}
	for i := byte(1); i <= 3; i++ {
		_ = q.Put(context.Background(), []byte{i, i}, 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewFeeder(q, sink, nil, nil).Run(ctx) }()

	waitFor(t, "three writes", func() bool { return len(sink.Writes()) == 3 })
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}

	for i, w := range sink.Writes() {
		want := []byte{byte(i + 1), byte(i + 1)}
		if !bytes.Equal(w, want) {
			t.Errorf("write %d = %v, want %v", i, w, want)
		}
	}
}

func TestFeeder_StopsOnDeadSink(t *testing.T) {
	q := NewQueue(5)
	sink := &deadSink{}
	_ = q.Put(context.Background(), []byte{1}, 0)
	_ = q.Put(context.Background(), []byte{2}, 0)

	done := make(chan error, 1)
	go func() { done <- NewFeeder(q, sink, nil, nil).Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feeder did not stop on a dead sink")
	}
	if sink.calls != 1 {
		t.Errorf("sink writes = %d, want 1", sink.calls)
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1", q.Len())
	}
}

func TestFeeder_StopsOnClosedQueue(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	if err := NewFeeder(q, &recordingSink{}, nil, nil).Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}
