package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = 0
	if _, err := New(cfg, &testResolver{}, &recordingSink{}); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestClient_DeliversToSink(t *testing.T) {
	fs := newFakeServer(t, modeServe)
	sink := &recordingSink{}

	c, err := New(fastConfig(), &testResolver{addr: fs.Address(t), ok: true}, sink)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, "samples at the sink", func() bool { return len(sink.Writes()) >= 5 })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	for i, w := range sink.Writes() {
		if len(w) != 16 {
			t.Errorf("write %d length = %d, want 16", i, len(w))
		}
	}
}

func TestClient_DeadSinkKeepsNetworkAlive(t *testing.T) {
	fs := newFakeServer(t, modeServe)
	cfg := fastConfig()
	cfg.QueueSize = 3

	c, err := New(cfg, &testResolver{addr: fs.Address(t), ok: true}, &deadSink{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	waitFor(t, "heartbeats after the sink died", func() bool { return fs.Count(domain.RequestHeartbeat) >= 2 })
	if got := c.Queue().Len(); got != 3 {
		t.Errorf("queue length = %d, want 3", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
