// Package inject provides the process-wide dependency resolution
// registry: a provider table mapping tokens to static values or
// factories, plus an optional fallback resolver. It is independent of
// the schema registry and is consumed by the parse engine to populate
// injected fields.
package inject

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/conduit-lang/remodel/schema"
)

// ErrNotFound is returned by Resolve when no provider matches a token
// and no fallback produces a value.
var ErrNotFound = errors.New("no provider registered for token")

// FactoryFunc produces a value for a token. It is invoked fresh on
// every resolution; results are never cached.
type FactoryFunc func(ctx context.Context) (any, error)

// FallbackFunc resolves tokens no provider matches. A nil value with a
// nil error means the fallback cannot resolve the token either.
type FallbackFunc func(ctx context.Context, token any) (any, error)

// Provider binds a token to a resolution: a static Value, or a Factory
// invoked on every call. When both are set the factory wins.
type Provider struct {
	Token   any
	Value   any
	Factory FactoryFunc
}

// Token is a unique symbol-like identity for provider lookup. Two
// tokens are never equal, even when minted with the same label.
type Token struct {
	id    uuid.UUID
	label string
}

// NewToken mints a unique token. The label appears in not-found errors.
func NewToken(label string) *Token {
	return &Token{id: uuid.New(), label: label}
}

// String returns the token's label, or its id when unlabeled.
func (t *Token) String() string {
	if t.label != "" {
		return t.label
	}
	return t.id.String()
}

// Options carries the registry configuration. A nil field retains the
// previous value; pass an empty non-nil Providers slice to clear the
// provider table explicitly.
type Options struct {
	Providers []Provider
	Fallback  FallbackFunc
}

// Registry is a provider table with an optional fallback resolver. It
// persists until explicitly reconfigured and is safe for concurrent
// use.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	fallback  FallbackFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Configure replaces whichever of providers and fallback is supplied;
// an omitted (nil) argument retains its previous value.
func (r *Registry) Configure(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.Providers != nil {
		r.providers = append([]Provider(nil), opts.Providers...)
	}
	if opts.Fallback != nil {
		r.fallback = opts.Fallback
	}
}

// Reset clears both the provider table and the fallback. Tests isolate
// themselves by calling this between cases.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = nil
	r.fallback = nil
}

// Resolve looks up token. The first matching provider wins: a static
// provider returns its value, a factory provider invokes its factory
// fresh; repeated resolutions of a factory-backed token may yield
// distinct results. When no provider matches, the fallback is consulted
// and its non-nil result used; otherwise ErrNotFound names the token.
func (r *Registry) Resolve(ctx context.Context, token any) (any, error) {
	r.mu.RLock()
	providers := r.providers
	fallback := r.fallback
	r.mu.RUnlock()

	for _, p := range providers {
		if p.Token != token {
			continue
		}
		if p.Factory != nil {
			return p.Factory(ctx)
		}
		return p.Value, nil
	}

	if fallback != nil {
		v, err := fallback(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("fallback resolver for %s: %w", TokenName(token), err)
		}
		if v != nil {
			return v, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, TokenName(token))
}

// TokenName renders a token for error messages: type identities by
// their declared name, minted tokens by their label, everything else
// through fmt.
func TokenName(token any) string {
	switch t := token.(type) {
	case *schema.Type:
		if t.Name != "" {
			return t.Name
		}
		return "unnamed type"
	case *Token:
		return t.String()
	case string:
		return t
	default:
		return fmt.Sprintf("%v", token)
	}
}

// defaultRegistry is the process-wide registry behind the package-level
// functions.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Configure configures the process-wide registry.
func Configure(opts Options) {
	defaultRegistry.Configure(opts)
}

// Resolve resolves a token against the process-wide registry.
func Resolve(ctx context.Context, token any) (any, error) {
	return defaultRegistry.Resolve(ctx, token)
}

// Reset clears the process-wide registry (useful for testing).
func Reset() {
	defaultRegistry.Reset()
}
