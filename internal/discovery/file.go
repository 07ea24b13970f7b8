package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/pkg/log"
)

// DefaultDebounceDelay is how long FileWatcher waits after the last change
// before re-reading the file.
const DefaultDebounceDelay = 100 * time.Millisecond

// FileWatcher resolves to the host:port written in a file and follows
// changes to it. A missing or empty file means no address is known.
type FileWatcher struct {
	Dynamic

	path          string
	debounceDelay time.Duration
	logger        log.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, logger log.Logger) *FileWatcher {
	return &FileWatcher{
		path:          path,
		debounceDelay: DefaultDebounceDelay,
		logger:        log.OrNoop(logger),
	}
}

// Load reads the file once and updates the address.
func (w *FileWatcher) Load() error {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		if w.Clear() {
			w.logger.Info("server address file removed", log.String("path", w.path))
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read server address file: %w", err)
	}

	s := strings.TrimSpace(string(data))
	if s == "" {
		if w.Clear() {
			w.logger.Info("server address cleared", log.String("path", w.path))
		}
		return nil
	}
	addr, err := domain.ParseAddress(s)
	if err != nil {
		return fmt.Errorf("parse server address file %s: %w", w.path, err)
	}
	if w.Set(addr) {
		w.logger.Info("server address updated",
			log.String("path", w.path),
			log.String("server", addr.String()),
		)
	}
	return nil
}

// Run loads the file and then watches its directory until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so that editors that replace the file are seen.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if err := w.Load(); err != nil {
		w.logger.Warn("server address file unreadable", log.Err(err))
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleLoad()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("server address watcher error", log.Err(err))
		}
	}
}

func (w *FileWatcher) scheduleLoad() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		if err := w.Load(); err != nil {
			w.logger.Warn("server address file unreadable", log.Err(err))
		}
	})
}

func (w *FileWatcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}
