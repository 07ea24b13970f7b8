package domain

import "errors"

// Domain errors represent error conditions in the netrng domain.
// These errors are returned across package boundaries and can be checked with errors.Is.
var (
	// ErrMalformedMessage is returned when a frame does not parse as a request or response.
	ErrMalformedMessage = errors.New("netrng: malformed message")

	// ErrUnknownMessageKind is returned when a record carries an unrecognized discriminant.
	// Callers treat it as a no-op so that newer peers can extend the protocol.
	ErrUnknownMessageKind = errors.New("netrng: unknown message kind")

	// ErrDeviceFailure is returned when the entropy device cannot be read.
	// There is no fallback source, so this is fatal for the server.
	ErrDeviceFailure = errors.New("netrng: entropy device failure")

	// ErrQueueClosed is returned by sink queue operations after Close.
	ErrQueueClosed = errors.New("netrng: queue closed")

	// ErrQueueFull is returned when a bounded enqueue wait expires.
	ErrQueueFull = errors.New("netrng: queue full")

	// ErrSinkClosed is returned when the sink subprocess no longer accepts input.
	ErrSinkClosed = errors.New("netrng: sink closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("netrng: invalid configuration")
)
