package discovery

import (
	"sync"

	"github.com/infincia/netrng/internal/domain"
)

// Static always resolves to the same address.
type Static struct {
	addr domain.Address
}

// NewStatic returns a resolver for addr.
func NewStatic(addr domain.Address) Static {
	return Static{addr: addr}
}

// Resolve returns the fixed address, or false if it is zero.
func (s Static) Resolve() (domain.Address, bool) {
	return s.addr, !s.addr.IsZero()
}

// Dynamic holds an address that can change at runtime.
// It is safe for concurrent use.
type Dynamic struct {
	mu   sync.RWMutex
	addr domain.Address
}

// Resolve returns the current address, if any.
func (d *Dynamic) Resolve() (domain.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.addr, !d.addr.IsZero()
}

// Set replaces the address and reports whether it changed.
func (d *Dynamic) Set(addr domain.Address) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := d.addr != addr
	d.addr = addr
	return changed
}

// Clear forgets the address.
func (d *Dynamic) Clear() bool {
	return d.Set(domain.Address{})
}
