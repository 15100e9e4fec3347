// Package diff computes structural differences between two instances of
// the same registered type and the equality relation built on top of
// them.
package diff

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/conduit-lang/remodel/schema"
)

// ErrTypeMismatch is returned when the two instances do not share a
// declared type.
var ErrTypeMismatch = errors.New("instances are not of the same type")

// Equaler is a custom equality operation; when a value exposes it, the
// operation is authoritative.
type Equaler interface {
	Equals(other any) bool
}

// FieldChange records one differing field.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

// Engine is the diff/equality engine.
type Engine struct {
	registry *schema.Registry
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// NewEngine creates a diff engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{registry: schema.DefaultRegistry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Diff compares two instances field by field in declaration order,
// using the field's custom equality when declared and the general
// equality rule otherwise. It fails when the instances are of different
// types or of an unregistered type.
func (e *Engine) Diff(a, b *schema.Instance) ([]FieldChange, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("diff: nil instance")
	}
	if a.Type() != b.Type() {
		return nil, fmt.Errorf("diff: %w: %s vs %s", ErrTypeMismatch, a.Type().Name, b.Type().Name)
	}
	if !e.registry.Registered(a.Type()) {
		return nil, fmt.Errorf("diff %s: %w", a.Type().Name, schema.ErrNotRegistered)
	}

	var changes []FieldChange
	for _, f := range a.Type().MergedFields() {
		oldValue, oldSet := a.Get(f.Name)
		newValue, newSet := b.Get(f.Name)
		if oldSet != newSet {
			changes = append(changes, FieldChange{Field: f.Name, OldValue: oldValue, NewValue: newValue})
			continue
		}
		if !oldSet {
			continue
		}
		if !e.fieldEqual(f, oldValue, newValue) {
			changes = append(changes, FieldChange{Field: f.Name, OldValue: oldValue, NewValue: newValue})
		}
	}
	return changes, nil
}

// Equals reports whether two values are equal under the general rule:
// two instances are equal when they share a registered type and their
// diff is empty; a custom equality operation is authoritative;
// otherwise a deep structural comparison applies.
func (e *Engine) Equals(a, b any) bool {
	return e.valueEqual(a, b)
}

// Changes projects Diff into a sparse partial record of new values,
// shaped for the update engine.
func (e *Engine) Changes(a, b *schema.Instance) (map[string]any, error) {
	diff, err := e.Diff(a, b)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(diff))
	for _, c := range diff {
		out[c.Field] = c.NewValue
	}
	return out, nil
}

func (e *Engine) fieldEqual(f *schema.Field, a, b any) bool {
	if f.Equals != nil {
		return f.Equals(a, b)
	}
	return e.valueEqual(a, b)
}

func (e *Engine) valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if eq, ok := a.(Equaler); ok {
		return eq.Equals(b)
	}

	if ai, ok := a.(*schema.Instance); ok {
		bi, ok := b.(*schema.Instance)
		if !ok || ai.Type() != bi.Type() || !e.registry.Registered(ai.Type()) {
			return false
		}
		changes, err := e.Diff(ai, bi)
		return err == nil && len(changes) == 0
	}

	switch av := a.(type) {
	case *big.Int:
		bv, ok := b.(*big.Int)
		return ok && av.Cmp(bv) == 0
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}

	if as, ok := schema.AsSlice(a); ok {
		bs, ok := schema.AsSlice(b)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !e.valueEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// defaultEngine backs the package-level functions.
var defaultEngine = NewEngine()

// Diff diffs with the default engine.
func Diff(a, b *schema.Instance) ([]FieldChange, error) {
	return defaultEngine.Diff(a, b)
}

// Equals compares with the default engine.
func Equals(a, b any) bool {
	return defaultEngine.Equals(a, b)
}

// Changes projects a diff with the default engine.
func Changes(a, b *schema.Instance) (map[string]any, error) {
	return defaultEngine.Changes(a, b)
}
