package device

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/infincia/netrng/internal/domain"
)

// exclusiveReader fails the test if two reads overlap.
type exclusiveReader struct {
	t        *testing.T
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	reads    atomic.Int32
}

func (r *exclusiveReader) Read(p []byte) (int, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	if n > r.maxSeen.Load() {
		r.maxSeen.Store(n)
	}
	r.reads.Add(1)
	time.Sleep(200 * time.Microsecond)
	return rand.Read(p)
}

type failingReader struct{ err error }

func (r failingReader) Read(p []byte) (int, error) { return 0, r.err }

type countingCloser struct {
	io.Reader
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

type recordingObserver struct {
	mu    sync.Mutex
	calls int
	bytes int
	errs  int
}

func (o *recordingObserver) ObserveDeviceRead(n int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if err != nil {
		o.errs++
		return
	}
	o.bytes += n
}

func TestReadSample_Length(t *testing.T) {
	g := New(rand.Reader)
	for _, n := range []int{1, 16, 2048, 65536} {
		b, err := g.ReadSample(context.Background(), n)
		if err != nil {
			t.Fatalf("ReadSample(%d) error = %v", n, err)
		}
		if len(b) != n {
			t.Errorf("len(ReadSample(%d)) = %d, want %d", n, len(b), n)
		}
	}
}

func TestReadSample_InvalidSize(t *testing.T) {
	g := New(rand.Reader)
	if _, err := g.ReadSample(context.Background(), 0); err == nil {
		t.Error("ReadSample(0) error = nil, want error")
	}
}

func TestReadSample_Exclusive(t *testing.T) {
	r := &exclusiveReader{t: t}
	g := New(r)

	const workers = 8
	const perWorker = 20

	var wg sync.WaitGroup
	results := make(chan []byte, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				b, err := g.ReadSample(context.Background(), 32)
				if err != nil {
					t.Errorf("ReadSample() error = %v", err)
					return
				}
				results <- b
			}
		}()
	}
	wg.Wait()
	close(results)

	if got := r.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent reads = %d, want 1", got)
	}

	seen := make(map[string]bool)
	for b := range results {
		if seen[string(b)] {
			t.Errorf("duplicate sample %x", b)
		}
		seen[string(b)] = true
	}
	if len(seen) != workers*perWorker {
		t.Errorf("distinct samples = %d, want %d", len(seen), workers*perWorker)
	}
}

func TestReadSample_FreshBuffer(t *testing.T) {
	g := New(bytes.NewReader(bytes.Repeat([]byte{0xAB}, 64)))
	a, err := g.ReadSample(context.Background(), 32)
	if err != nil {
		t.Fatalf("ReadSample() error = %v", err)
	}
	b, err := g.ReadSample(context.Background(), 32)
	if err != nil {
		t.Fatalf("ReadSample() error = %v", err)
	}
	a[0] = 0
	if b[0] != 0xAB {
		t.Error("samples share a backing buffer")
	}
}

func TestReadSample_DeviceFailure(t *testing.T) {
	tests := []struct {
		name string
		r    io.Reader
	}{
		{"read error", failingReader{err: errors.New("input/output error")}},
		{"short read", bytes.NewReader([]byte{1, 2, 3})},
		{"empty", bytes.NewReader(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			g := New(tt.r, WithObserver(obs))
			_, err := g.ReadSample(context.Background(), 16)
			if !errors.Is(err, domain.ErrDeviceFailure) {
				t.Errorf("ReadSample() error = %v, want ErrDeviceFailure", err)
			}
			if obs.errs != 1 {
				t.Errorf("observed errors = %d, want 1", obs.errs)
			}
		})
	}
}

func TestReadSample_Observer(t *testing.T) {
	obs := &recordingObserver{}
	g := New(rand.Reader, WithObserver(obs))
	for i := 0; i < 3; i++ {
		if _, err := g.ReadSample(context.Background(), 100); err != nil {
			t.Fatalf("ReadSample() error = %v", err)
		}
	}
	if obs.calls != 3 || obs.bytes != 300 {
		t.Errorf("observer calls=%d bytes=%d, want 3 and 300", obs.calls, obs.bytes)
	}
}

func TestReadSample_RateLimitCancelled(t *testing.T) {
	// One byte per second with an already drained bucket.
	g := New(rand.Reader, WithRateLimit(1))
	if _, err := g.ReadSample(context.Background(), 1); err != nil {
		t.Fatalf("first ReadSample() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.ReadSample(ctx, 1); err == nil {
		t.Error("ReadSample() with cancelled context error = nil, want error")
	}
}

func TestReadSample_RateLimitLargeSample(t *testing.T) {
	g := New(rand.Reader, WithRateLimit(1<<20))
	b, err := g.ReadSample(context.Background(), 1<<20)
	if err != nil {
		t.Fatalf("ReadSample() error = %v", err)
	}
	if len(b) != 1<<20 {
		t.Errorf("len = %d, want %d", len(b), 1<<20)
	}
}

func TestClose_Once(t *testing.T) {
	c := &countingCloser{Reader: rand.Reader}
	g := New(c)
	for i := 0; i < 3; i++ {
		if err := g.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}
	if c.closes != 1 {
		t.Errorf("closes = %d, want 1", c.closes)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwrng")
	data := bytes.Repeat([]byte{7}, 64)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	g, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer g.Close()

	b, err := g.ReadSample(context.Background(), 64)
	if err != nil {
		t.Fatalf("ReadSample() error = %v", err)
	}
	if !bytes.Equal(b, data) {
		t.Errorf("ReadSample() = %x, want %x", b, data)
	}
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, domain.ErrDeviceFailure) {
		t.Errorf("Open() error = %v, want ErrDeviceFailure", err)
	}
}

func TestCalibrate(t *testing.T) {
	g := New(rand.Reader)
	c, err := Calibrate(context.Background(), g, 1024, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if c.Bytes <= 0 || c.Bytes%1024 != 0 {
		t.Errorf("Bytes = %d, want positive multiple of 1024", c.Bytes)
	}
	if c.BytesPerSecond <= 0 {
		t.Errorf("BytesPerSecond = %v, want > 0", c.BytesPerSecond)
	}
}

func TestCalibrate_DeviceFailure(t *testing.T) {
	g := New(failingReader{err: errors.New("gone")})
	_, err := Calibrate(context.Background(), g, 16, time.Second)
	if !errors.Is(err, domain.ErrDeviceFailure) {
		t.Errorf("Calibrate() error = %v, want ErrDeviceFailure", err)
	}
}

func TestCalibration_MaxClients(t *testing.T) {
	c := Calibration{BytesPerSecond: 5000}
	if got := c.MaxClients(2048); got != 2 {
		t.Errorf("MaxClients(2048) = %d, want 2", got)
	}
	if got := c.MaxClients(0); got != 0 {
		t.Errorf("MaxClients(0) = %d, want 0", got)
	}
}
