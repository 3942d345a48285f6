package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/guiapi/pkg/domain"
)

// Handler is a client function the server may invoke through a JSCall.
// Handlers that submit actions must do so with the ctx they were given.
// args is the raw Arguments value of the call, possibly nil.
type Handler func(ctx context.Context, args json.RawMessage) error

// Registry holds the fixed set of functions the server is permitted to call.
// It is filled during initialization and sealed before the first response is
// interpreted; incoming data can never add names to it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	sealed   bool
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a function to the registry.
// It fails once the registry is sealed, on empty names and on duplicates.
func (r *Registry) Register(name string, fn Handler) error {
	if name == "" {
		return fmt.Errorf("register: %w", domain.ErrEmptyActionName)
	}
	if fn == nil {
		return fmt.Errorf("register %q: nil handler", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %q: %w", name, domain.ErrRegistrySealed)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("register %q: %w", name, domain.ErrDuplicateFunction)
	}
	r.handlers[name] = fn
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, fn Handler) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. Calling it more than once is harmless.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry no longer accepts registrations.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Resolve looks up a function by name. The boolean is false when the server
// named a function the client never registered.
func (r *Registry) Resolve(name string) (Handler, bool) {
	r.mu.RLock()
	fn, ok := r.handlers[name]
	r.mu.RUnlock()
	return fn, ok
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
