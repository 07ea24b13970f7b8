package ports

import "github.com/infincia/netrng/internal/domain"

// Resolver supplies the server address a client should use.
// The address may be absent (discovery still pending) and may change at
// runtime; the client engine calls Resolve at the start of every cycle.
type Resolver interface {
	// Resolve returns the current address and whether one is known.
	Resolve() (domain.Address, bool)
}
