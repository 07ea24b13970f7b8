package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/infincia/netrng/internal/cliconfig"
	"github.com/infincia/netrng/pkg/log"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netrng.toml")
	content := `
port = 7000
debug = true

[client]
queue_size = 16
server_address = "10.0.0.5"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NETRNG_QUEUE_SIZE", "32")

	cfg := cliconfig.DefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "")
	if err := cmd.ParseFlags([]string{"--port", "9000"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	logger, err := loadConfig(cmd, &cfg, path, cliconfig.ModeClient)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if logger == nil {
		t.Error("loadConfig() returned nil logger")
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %v, want 9000 (flag wins)", cfg.Port)
	}
	if cfg.QueueSize != 32 {
		t.Errorf("QueueSize = %v, want 32 (env over file)", cfg.QueueSize)
	}
	if cfg.ServerAddress != "10.0.0.5" {
		t.Errorf("ServerAddress = %v, want 10.0.0.5", cfg.ServerAddress)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true (from file)")
	}
	if cfg.Mode != cliconfig.ModeClient {
		t.Errorf("Mode = %v, want %v", cfg.Mode, cliconfig.ModeClient)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	cmd := &cobra.Command{Use: "test"}

	_, err := loadConfig(cmd, &cfg, filepath.Join(t.TempDir(), "missing.toml"), "")
	if err == nil {
		t.Error("loadConfig() expected error for missing --config file")
	}
}

// fakeService stands in for a netrng service. With finish set it stops on
// its own right after Start.
type fakeService struct {
	finish  bool
	done    chan struct{}
	err     error
	stopped bool
}

func (f *fakeService) Start(context.Context) error {
	if f.finish {
		close(f.done)
	}
	return nil
}

func (f *fakeService) Stop() error           { f.stopped = true; return nil }
func (f *fakeService) Done() <-chan struct{} { return f.done }
func (f *fakeService) Err() error            { return f.err }

func TestRun_ReturnsCrashError(t *testing.T) {
	crash := errors.New("device gone")
	svc := &fakeService{finish: true, done: make(chan struct{}), err: crash}

	err := run(context.Background(), svc, log.NewNoopLogger())
	if !errors.Is(err, crash) {
		t.Errorf("run() error = %v, want %v", err, crash)
	}
	if !svc.stopped {
		t.Error("run() did not stop the service")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	svc := &fakeService{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, svc, log.NewNoopLogger()); err != nil {
		t.Errorf("run() error = %v, want nil", err)
	}
	if !svc.stopped {
		t.Error("run() did not stop the service")
	}
}
