package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_Constant(t *testing.T) {
	b := NewBackoff(10*time.Second, 10*time.Second)
	for i := 0; i < 4; i++ {
		if got := b.Next(); got != 10*time.Second {
			t.Errorf("Next() #%d = %v, want 10s", i, got)
		}
	}
}

func TestBackoff_MaxBelowInitial(t *testing.T) {
	b := NewBackoff(time.Second, 0)
	b.Next()
	if got := b.Current(); got != time.Second {
		t.Errorf("Current() = %v, want 1s", got)
	}
}

func TestBackoff_Doubling(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}

	b.Reset()
	if got := b.Current(); got != time.Second {
		t.Errorf("Current() after Reset = %v, want 1s", got)
	}
}

func TestBackoff_Jitter(t *testing.T) {
	b := NewBackoff(time.Second, time.Second).WithJitter(0.2)
	for i := 0; i < 50; i++ {
		got := b.Next()
		if got < 800*time.Millisecond || got > 1200*time.Millisecond {
			t.Fatalf("Next() = %v, want within ±20%% of 1s", got)
		}
	}
}

func TestBackoff_SleepCancelled(t *testing.T) {
	b := NewBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.Sleep(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep() did not return promptly after cancel")
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("SleepContext() = %v, want nil", err)
	}
	if err := SleepContext(context.Background(), 0); err != nil {
		t.Errorf("SleepContext(0) = %v, want nil", err)
	}
}
