// Package update applies partial mutations to an instance, producing a
// new validated instance and leaving the original untouched. Values in
// a change set are taken as already typed; they are never
// re-deserialized.
package update

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/remodel/schema"
	"github.com/conduit-lang/remodel/validation"
)

// Options controls a single update call.
type Options struct {
	// Strict fails the update when the new instance has any problem.
	Strict bool
}

// Engine is the update engine.
type Engine struct {
	registry  *schema.Registry
	validator *validation.Engine
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithValidator sets the validation engine run against the updated
// instance.
func WithValidator(v *validation.Engine) Option {
	return func(e *Engine) { e.validator = v }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an update engine. Unless overridden, the validator
// shares the engine's registry.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: schema.DefaultRegistry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.validator == nil {
		e.validator = validation.NewEngine(validation.WithRegistry(e.registry))
	}
	return e
}

// Update shallow-clones the instance's current field values, overwrites
// every changed key whose field is not immutable, and validates the
// resulting new instance. Immutable fields and keys with no declared
// field are skipped silently. In strict mode a non-empty problem list
// fails with *schema.ValidationError; otherwise problems are attached
// and the new instance returned.
func (e *Engine) Update(ctx context.Context, inst *schema.Instance, changes map[string]any, opts Options) (*schema.Instance, error) {
	if inst == nil {
		return nil, fmt.Errorf("update: nil instance")
	}
	t := inst.Type()
	if !e.registry.Registered(t) {
		return nil, fmt.Errorf("update %s: %w", t.Name, schema.ErrNotRegistered)
	}

	next := schema.NewInstance(t)
	for name, value := range inst.Values() {
		next.Set(name, value)
	}
	for name, value := range changes {
		f := t.FieldByName(name)
		if f == nil || f.Immutable {
			continue
		}
		next.Set(name, value)
	}
	next.SetRaw(inst.Raw())

	problems, err := e.validator.Validate(ctx, next)
	if err != nil {
		return nil, err
	}
	if opts.Strict && len(problems) > 0 {
		return nil, schema.NewValidationError(problems)
	}

	e.logger.Debug("updated instance",
		zap.String("type", t.Name),
		zap.Int("changes", len(changes)),
		zap.Int("problems", len(problems)))
	return next, nil
}

// Result is the discriminated outcome of SafeUpdate. Original always
// carries the unmodified input instance.
type Result struct {
	Success  bool
	Data     *schema.Instance
	Problems []schema.Problem
	Original *schema.Instance
}

// SafeUpdate wraps Update, converting a validation failure into an
// unsuccessful result carrying the unmodified original instance.
func (e *Engine) SafeUpdate(ctx context.Context, inst *schema.Instance, changes map[string]any, opts Options) (*Result, error) {
	next, err := e.Update(ctx, inst, changes, opts)
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return &Result{Problems: verr.Problems, Original: inst}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Data: next, Problems: next.Problems(), Original: inst}, nil
}

// defaultEngine backs the package-level functions.
var defaultEngine = NewEngine()

// Update updates with the default engine.
func Update(ctx context.Context, inst *schema.Instance, changes map[string]any, opts Options) (*schema.Instance, error) {
	return defaultEngine.Update(ctx, inst, changes, opts)
}

// SafeUpdate updates safely with the default engine.
func SafeUpdate(ctx context.Context, inst *schema.Instance, changes map[string]any, opts Options) (*Result, error) {
	return defaultEngine.SafeUpdate(ctx, inst, changes, opts)
}
