package lifecycle

import (
	"context"
	"time"
)

// State is where a netrng server or client service sits in its start/stop
// cycle.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// EventEmitter receives every accepted transition, with the reason passed to
// TransitionTo. The netrng facade forwards these to its EventHandler.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Manager is what a service needs to guard Start and Stop: the current
// state, the cancel func of the running context, and a count of the
// goroutines that must exit before Stop returns.
type Manager interface {
	State() State
	CanStart() bool
	CanStop() bool

	// TransitionTo fails with ErrNotRunning or ErrAlreadyRunning when the
	// move is not allowed from the current state.
	TransitionTo(next State, reason string) error

	SetCancel(cancel context.CancelFunc)
	// Cancel calls the func given to SetCancel, if any.
	Cancel()

	AddWorker()
	WorkerDone()
	// WaitWithTimeout returns ErrShutdownTimeout if workers are still
	// running after timeout.
	WaitWithTimeout(timeout time.Duration) error
}
