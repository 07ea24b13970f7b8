// Package lifecycle provides the state machine and shutdown helpers shared by
// the netrng server and client services.
//
// Services move through Stopped, Starting, Running, Stopping and Crashed.
// Worker goroutines are counted so that Stop can wait for them with a bound.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, emitter)
//
//	if !manager.CanStart() {
//	    return lifecycle.ErrAlreadyRunning
//	}
//	if err := manager.TransitionTo(lifecycle.StateStarting, "starting"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    // ...
//	}()
//
//	if err := manager.WaitWithTimeout(lifecycle.ShutdownTimeout); err != nil {
//	    return err
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting, Stopping
//
// Backoff provides the reconnect delays used by the client. With initial
// equal to max it yields a constant delay.
package lifecycle
