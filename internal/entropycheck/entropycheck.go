// Package entropycheck reports the size of the kernel entropy pool, which
// shows whether a client is keeping the pool topped up.
package entropycheck

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/infincia/netrng/pkg/log"
)

// Defaults for Monitor.
const (
	DefaultPath     = "/proc/sys/kernel/random/entropy_avail"
	DefaultInterval = time.Second
)

// Read returns the entropy estimate stored in the file at path.
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}

// Monitor logs the entropy estimate at a fixed interval.
type Monitor struct {
	Path     string
	Interval time.Duration
	Logger   log.Logger
}

// Run logs a reading immediately and then every Interval until ctx is done.
// A failed reading ends the run.
func (m Monitor) Run(ctx context.Context) error {
	path := m.Path
	if path == "" {
		path = DefaultPath
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := log.OrNoop(m.Logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := Read(path)
		if err != nil {
			return err
		}
		logger.Info("entropy in pool", log.Int("bits", n))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
