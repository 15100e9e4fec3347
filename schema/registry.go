package schema

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotRegistered is returned by engines asked to operate on a type
// that was never registered.
var ErrNotRegistered = errors.New("type is not registered")

// Registry manages all type declarations in the process. It is expected
// to be populated once at start-up and is safe to read concurrently
// once stable.
type Registry struct {
	mu     sync.RWMutex
	types  map[*Type]struct{}
	byName map[string]*Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[*Type]struct{}),
		byName: make(map[string]*Type),
	}
}

// Register records a type declaration after checking its structural
// invariants. Registration is idempotent: re-registering a type, or
// registering another type under the same name, last write wins.
func (r *Registry) Register(t *Type) error {
	if t == nil {
		return fmt.Errorf("register: nil type")
	}
	if err := validateDeclaration(t); err != nil {
		return fmt.Errorf("register %s: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[t] = struct{}{}
	if t.Name != "" {
		r.byName[t.Name] = t
	}
	return nil
}

// Registered reports whether t has been registered.
func (r *Registry) Registered(t *Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.types[t]
	return ok
}

// LookupByName resolves a registered type by its declared name. It is
// the lookup used for discriminator-based polymorphic parsing.
func (r *Registry) LookupByName(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byName[name]
	return t, ok
}

// Declaration returns the merged ordered field list for t, walking the
// supertype chain with the closest declaration winning.
func (r *Registry) Declaration(t *Type) []*Field {
	return t.MergedFields()
}

// Clear removes all registered types (useful for testing).
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = make(map[*Type]struct{})
	r.byName = make(map[string]*Type)
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}

// DefaultRegistry is the process-wide registry used by the package-level
// functions and by engines constructed without an explicit registry.
var DefaultRegistry = NewRegistry()

// Register records t in the default registry.
func Register(t *Type) error {
	return DefaultRegistry.Register(t)
}

// MustRegister records t in the default registry and panics on a
// declaration error. Intended for package-level registration at
// start-up.
func MustRegister(t *Type) *Type {
	if err := Register(t); err != nil {
		panic(err)
	}
	return t
}

// LookupByName resolves a name in the default registry.
func LookupByName(name string) (*Type, bool) {
	return DefaultRegistry.LookupByName(name)
}

// Clear resets the default registry (useful for testing).
func Clear() {
	DefaultRegistry.Clear()
}
