// Package domain contains the core entities and value objects for netrng.
//
// This package is the innermost layer of the module. It has no dependencies
// on infrastructure concerns (sockets, devices, logging) and contains only the
// records exchanged on the wire and the errors shared across layers.
//
// # Entities
//
//   - [Request]: what a client asks for on each cycle (sample or heartbeat)
//   - [Response]: what the server answers, optionally carrying a sample
//   - [Address]: the host/port a client connects to
//
// # Errors
//
// Sentinel errors are declared in errors.go and are checked with errors.Is.
// Callers wrap them with additional context using fmt.Errorf and %w.
package domain
