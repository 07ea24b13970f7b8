package discovery

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/internal/ports"
)

var (
	_ ports.Resolver = Static{}
	_ ports.Resolver = (*Dynamic)(nil)
	_ ports.Resolver = (*FileWatcher)(nil)
	_ ports.Resolver = (*Browser)(nil)
)

func TestStatic(t *testing.T) {
	addr := domain.Address{Host: "192.168.1.2", Port: 8989}
	got, ok := NewStatic(addr).Resolve()
	if !ok || got != addr {
		t.Errorf("Resolve() = %v, %v, want %v, true", got, ok, addr)
	}

	if _, ok := NewStatic(domain.Address{}).Resolve(); ok {
		t.Error("Resolve() on zero address ok = true, want false")
	}
}

func TestDynamic(t *testing.T) {
	var d Dynamic
	if _, ok := d.Resolve(); ok {
		t.Fatal("empty Dynamic resolved")
	}

	a := domain.Address{Host: "10.0.0.1", Port: 8989}
	if !d.Set(a) {
		t.Error("Set() changed = false, want true")
	}
	if d.Set(a) {
		t.Error("Set() same address changed = true, want false")
	}
	if got, ok := d.Resolve(); !ok || got != a {
		t.Errorf("Resolve() = %v, %v, want %v, true", got, ok, a)
	}
	if !d.Clear() {
		t.Error("Clear() changed = false, want true")
	}
	if _, ok := d.Resolve(); ok {
		t.Error("Resolve() after Clear ok = true, want false")
	}
}

func TestFileWatcher_Load(t *testing.T) {
	tests := []struct {
		name     string
		content  *string
		wantAddr domain.Address
		wantOK   bool
		wantErr  bool
	}{
		{"missing file", nil, domain.Address{}, false, false},
		{"empty file", strPtr(""), domain.Address{}, false, false},
		{"host and port", strPtr("10.0.0.5:8989\n"), domain.Address{Host: "10.0.0.5", Port: 8989}, true, false},
		{"hostname", strPtr("  rng.lan:9000 "), domain.Address{Host: "rng.lan", Port: 9000}, true, false},
		{"garbage", strPtr("not an address"), domain.Address{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "server")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			w := NewFileWatcher(path, nil)
			err := w.Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			got, ok := w.Resolve()
			if ok != tt.wantOK || got != tt.wantAddr {
				t.Errorf("Resolve() = %v, %v, want %v, %v", got, ok, tt.wantAddr, tt.wantOK)
			}
		})
	}
}

func TestFileWatcher_FollowsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server")
	if err := os.WriteFile(path, []byte("10.0.0.1:8989"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewFileWatcher(path, nil)
	w.debounceDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	waitResolve(t, w, domain.Address{Host: "10.0.0.1", Port: 8989}, true)

	if err := os.WriteFile(path, []byte("10.0.0.2:9000"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitResolve(t, w, domain.Address{Host: "10.0.0.2", Port: 9000}, true)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitResolve(t, w, domain.Address{}, false)
}

func TestFileWatcher_MissingDirectory(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "server"), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want error for missing directory")
	}
}

func TestBrowser_Handle(t *testing.T) {
	b := NewBrowser(nil)

	entry := func(ttl uint32, port int, v4 []net.IP, v6 []net.IP, host string) *zeroconf.ServiceEntry {
		e := zeroconf.NewServiceEntry("rng", ServiceType, ServiceDomain)
		e.TTL = ttl
		e.Port = port
		e.AddrIPv4 = v4
		e.AddrIPv6 = v6
		e.HostName = host
		return e
	}

	b.handle(entry(120, 8989, []net.IP{net.ParseIP("192.168.1.2")}, nil, "rng.local."))
	if got, ok := b.Resolve(); !ok || got != (domain.Address{Host: "192.168.1.2", Port: 8989}) {
		t.Errorf("Resolve() after IPv4 entry = %v, %v", got, ok)
	}

	b.handle(entry(120, 9000, nil, nil, "other.local."))
	if got, ok := b.Resolve(); !ok || got != (domain.Address{Host: "other.local", Port: 9000}) {
		t.Errorf("Resolve() after hostname entry = %v, %v", got, ok)
	}

	b.handle(entry(120, 0, []net.IP{net.ParseIP("10.0.0.1")}, nil, ""))
	if got, _ := b.Resolve(); got.Port != 9000 {
		t.Errorf("entry without port replaced the address: %v", got)
	}

	b.handle(entry(0, 9000, nil, nil, "other.local."))
	if _, ok := b.Resolve(); ok {
		t.Error("Resolve() after withdrawal ok = true, want false")
	}

	b.handle(nil)
}

func TestAdvertise_RejectsWildcard(t *testing.T) {
	for _, addr := range []string{"", "0.0.0.0", "::"} {
		if _, err := Advertise(addr, 8989, "1.0.0", nil); !errors.Is(err, ErrWildcardAddress) {
			t.Errorf("Advertise(%q) error = %v, want ErrWildcardAddress", addr, err)
		}
	}
}

func waitResolve(t *testing.T, r ports.Resolver, want domain.Address, wantOK bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		got, ok := r.Resolve()
		if ok == wantOK && got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Resolve() = %v, %v, want %v, %v", got, ok, want, wantOK)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func strPtr(s string) *string { return &s }
