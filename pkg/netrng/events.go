package netrng

import "github.com/infincia/netrng/pkg/lifecycle"

// State is the lifecycle state of a service.
type State = lifecycle.State

// Lifecycle states.
const (
	StateStopped  = lifecycle.StateStopped
	StateStarting = lifecycle.StateStarting
	StateRunning  = lifecycle.StateRunning
	StateStopping = lifecycle.StateStopping
	StateCrashed  = lifecycle.StateCrashed
)

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives service events.
// Handlers are called synchronously and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// BaseEventHandler implements EventHandler with no-op methods.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// eventEmitterWrapper adapts EventHandler to lifecycle.EventEmitter.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}
