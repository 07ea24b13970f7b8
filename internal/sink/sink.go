// Package sink delivers received entropy to a local consumer process, such
// as rngd reading from its standard input.
package sink

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/infincia/netrng/internal/domain"
	"github.com/infincia/netrng/pkg/log"
)

// DefaultCommand feeds samples to rngd on stdin.
const DefaultCommand = "rngd -f -r /dev/stdin"

// closeTimeout bounds how long Close waits for the process to exit after
// its stdin is closed.
const closeTimeout = 5 * time.Second

// Process is a sink backed by a subprocess. Samples are written to its
// stdin and flushed after every write; its output is discarded.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	mu sync.Mutex
	w  *bufio.Writer

	done    chan struct{}
	waitErr error

	closeOnce sync.Once
	logger    log.Logger
}

// ParseCommand splits a command line on whitespace.
func ParseCommand(s string) []string {
	return strings.Fields(s)
}

// Start launches argv with a pipe to its stdin. The process is killed when
// ctx is cancelled.
func Start(ctx context.Context, argv []string, logger log.Logger) (*Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("sink: empty command")
	}
	logger = log.OrNoop(logger)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	// Stdout and Stderr stay nil, which connects them to the null device.
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sink: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sink: start %s: %w", argv[0], err)
	}

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		w:      bufio.NewWriter(stdin),
		done:   make(chan struct{}),
		logger: logger,
	}
	go p.wait()

	logger.Info("sink started",
		log.String("command", strings.Join(argv, " ")),
		log.Int("pid", cmd.Process.Pid),
	)
	return p, nil
}

func (p *Process) wait() {
	p.waitErr = p.cmd.Wait()
	close(p.done)
	if p.waitErr != nil {
		p.logger.Warn("sink exited", log.Err(p.waitErr))
		return
	}
	p.logger.Info("sink exited")
}

// Write hands b to the process and flushes. Any failure is reported as
// domain.ErrSinkClosed because the pipe cannot recover.
func (p *Process) Write(b []byte) (int, error) {
	select {
	case <-p.done:
		return 0, fmt.Errorf("sink: process exited: %w", domain.ErrSinkClosed)
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.w.Write(b)
	if err == nil {
		err = p.w.Flush()
	}
	if err != nil {
		return n, fmt.Errorf("sink: write: %v: %w", err, domain.ErrSinkClosed)
	}
	return n, nil
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error once Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Close closes stdin and waits for the process to exit, killing it if it
// does not. It is safe to call more than once.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()

		t := time.NewTimer(closeTimeout)
		defer t.Stop()
		select {
		case <-p.done:
		case <-t.C:
			p.logger.Warn("sink did not exit, killing it")
			_ = p.cmd.Process.Kill()
			<-p.done
		}
	})
	return p.Err()
}

// DiscardSink accepts and drops every write.
type DiscardSink struct{}

// Write returns len(b), nil.
func (DiscardSink) Write(b []byte) (int, error) { return len(b), nil }

// Discard is used when no sink command is configured.
var Discard DiscardSink
