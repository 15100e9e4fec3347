// Package serialize converts typed instances back into plain data. No
// validation occurs during serialization.
package serialize

import (
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/conduit-lang/remodel/schema"
)

// isoMillis is the boundary form of date values: ISO-8601 with
// millisecond precision and a UTC suffix.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Engine is the serialize engine.
type Engine struct {
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a serialize engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Serialize converts an instance to plain data. Wrapper types emit only
// the wrapped field's serialized value. Injected fields are never
// serialized; unset fields are omitted entirely; explicit nulls are
// preserved; dates become ISO-8601 UTC millisecond strings and large
// integers become decimal strings; a field's custom serialize override
// wins; anything else passes through unchanged.
func (e *Engine) Serialize(inst *schema.Instance) (any, error) {
	if inst == nil {
		return nil, fmt.Errorf("serialize: nil instance")
	}
	t := inst.Type()

	if wf := t.WrapperField(); wf != nil {
		value, ok := inst.Get(wf.Name)
		if !ok {
			return nil, nil
		}
		return e.fieldValue(wf, value)
	}

	out := make(map[string]any)
	for _, f := range t.MergedFields() {
		if f.Injected {
			continue
		}
		value, ok := inst.Get(f.Name)
		if !ok {
			continue
		}
		if value == nil {
			out[f.Name] = nil
			continue
		}
		v, err := e.fieldValue(f, value)
		if err != nil {
			return nil, fmt.Errorf("serialize %s.%s: %w", t.Name, f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// fieldValue serializes one non-nil field value, element-wise for
// arrays.
func (e *Engine) fieldValue(f *schema.Field, value any) (any, error) {
	if f.Serialize != nil {
		return f.Serialize(value)
	}

	if f.Array {
		elems, ok := schema.AsSlice(value)
		if !ok {
			return value, nil
		}
		out := make([]any, len(elems))
		for i, ev := range elems {
			if ev == nil {
				continue
			}
			v, err := e.scalarValue(ev)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	return e.scalarValue(value)
}

// scalarValue serializes one scalar value by its runtime shape.
func (e *Engine) scalarValue(value any) (any, error) {
	switch v := value.(type) {
	case *schema.Instance:
		return e.Serialize(v)
	case time.Time:
		return v.UTC().Format(isoMillis), nil
	case *big.Int:
		return v.String(), nil
	default:
		return value, nil
	}
}

// defaultEngine backs the package-level function.
var defaultEngine = NewEngine()

// Serialize serializes with the default engine.
func Serialize(inst *schema.Instance) (any, error) {
	return defaultEngine.Serialize(inst)
}
