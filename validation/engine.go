// Package validation re-checks the invariants of already-typed
// instances: it re-runs the field-level and type-level validator passes
// against an instance's current values and replaces its attached
// problem list wholesale.
package validation

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/conduit-lang/remodel/internal/concurrent"
	"github.com/conduit-lang/remodel/schema"
)

// Engine is the validation engine. The zero-value configuration uses
// the default schema registry and a no-op logger.
type Engine struct {
	registry    *schema.Registry
	logger      *zap.Logger
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the schema registry consulted for registration
// checks and name lookups.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithParallelism bounds the number of instances ValidateAll checks
// concurrently.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// NewEngine creates a validation engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry:    schema.DefaultRegistry,
		logger:      zap.NewNop(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate re-runs the field-level and type-level validator passes
// against the instance's current field values, recursing into nested
// declared-type values, and replaces the instance's attached problem
// list wholesale, even with an empty list. The returned problems are
// exclusively validator-sourced.
func (e *Engine) Validate(ctx context.Context, inst *schema.Instance) ([]schema.Problem, error) {
	if inst == nil {
		return nil, fmt.Errorf("validate: nil instance")
	}
	if !e.registry.Registered(inst.Type()) {
		return nil, fmt.Errorf("validate %s: %w", inst.Type().Name, schema.ErrNotRegistered)
	}

	problems, err := e.validateInstance(ctx, inst, "")
	if err != nil {
		return nil, err
	}

	inst.SetProblems(problems)
	e.logger.Debug("validated instance",
		zap.String("type", inst.Type().Name),
		zap.Int("problems", len(problems)))
	return problems, nil
}

// ValidateAll validates independent instances with bounded parallelism.
// Results index-match the input; the first validator error aborts the
// batch.
func (e *Engine) ValidateAll(ctx context.Context, insts []*schema.Instance) ([][]schema.Problem, error) {
	out := make([][]schema.Problem, len(insts))
	err := concurrent.Run(ctx, len(insts), e.parallelism, func(ctx context.Context, i int) error {
		problems, err := e.Validate(ctx, insts[i])
		if err != nil {
			return fmt.Errorf("instance %d: %w", i, err)
		}
		out[i] = problems
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validateInstance collects problems for inst with paths rebased under
// base. Nested instances contribute their problems to the enclosing
// list; only the top-level call attaches anything.
func (e *Engine) validateInstance(ctx context.Context, inst *schema.Instance, base string) ([]schema.Problem, error) {
	var problems []schema.Problem
	t := inst.Type()

	for _, f := range t.MergedFields() {
		if f.Injected || f.Kind == schema.KindAny {
			continue
		}
		value, ok := inst.Get(f.Name)
		if !ok || value == nil {
			continue
		}
		path := schema.JoinPath(base, f.Name)

		if f.Array {
			elems, ok := schema.AsSlice(value)
			if !ok {
				continue
			}
			for i, ev := range elems {
				if ev == nil {
					continue
				}
				ps, err := e.validateValue(ctx, f, ev, schema.IndexPath(path, i), base)
				if err != nil {
					return nil, err
				}
				problems = append(problems, ps...)
			}
			ps, err := Run(ctx, f.ArrayValidators, value, path, base)
			if err != nil {
				return nil, err
			}
			problems = append(problems, ps...)
			continue
		}

		ps, err := e.validateValue(ctx, f, value, path, base)
		if err != nil {
			return nil, err
		}
		problems = append(problems, ps...)
	}

	for _, tv := range t.MergedValidators() {
		ps, err := tv(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("type validator for %s: %w", t.Name, err)
		}
		for _, p := range ps {
			problems = append(problems, schema.Problem{
				Path:    schema.RebasePath(base, base, p.Path),
				Message: p.Message,
			})
		}
	}

	return problems, nil
}

// validateValue runs a field's validators against one value or array
// element, recursing when the value is a nested instance.
func (e *Engine) validateValue(ctx context.Context, f *schema.Field, value any, path, base string) ([]schema.Problem, error) {
	problems, err := Run(ctx, f.Validators, value, path, base)
	if err != nil {
		return nil, err
	}

	if nested, ok := value.(*schema.Instance); ok {
		ps, err := e.validateInstance(ctx, nested, path)
		if err != nil {
			return nil, err
		}
		problems = append(problems, ps...)
	}

	return problems, nil
}

// Run invokes validators against value, rebasing reported paths under
// base and defaulting empty paths to fallback. The parse engine shares
// this pass for its per-field validator step.
func Run(ctx context.Context, validators []schema.FieldValidator, value any, fallback, base string) ([]schema.Problem, error) {
	var problems []schema.Problem
	for _, v := range validators {
		ps, err := v(ctx, value)
		if err != nil {
			return nil, fmt.Errorf("validator at %s: %w", fallback, err)
		}
		for _, p := range ps {
			problems = append(problems, schema.Problem{
				Path:    schema.RebasePath(base, fallback, p.Path),
				Message: p.Message,
			})
		}
	}
	return problems, nil
}
