// Package parse converts untyped plain data into typed instances of
// registered types. Hard problems (wrong runtime type, missing required
// field, disallowed null, malformed discriminator or array) always fail
// a parse; soft problems (validator findings) fail only in strict mode
// and are otherwise attached to the returned instance.
package parse

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/conduit-lang/remodel/inject"
	"github.com/conduit-lang/remodel/internal/concurrent"
	"github.com/conduit-lang/remodel/schema"
	"github.com/conduit-lang/remodel/validation"
)

const (
	msgMissing = "Required property is missing from input"
	msgNull    = "Cannot be null or undefined"
)

// Options controls a single parse call.
type Options struct {
	// Strict escalates any problem, hard or soft, into a failure.
	Strict bool
}

// Engine is the parse engine. Fields are processed strictly in
// declaration order and array elements in index order, so problem paths
// are deterministic and reproducible.
type Engine struct {
	registry    *schema.Registry
	injector    *inject.Registry
	logger      *zap.Logger
	parallelism int
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry sets the schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithInjector sets the dependency resolution registry consulted for
// injected fields.
func WithInjector(r *inject.Registry) Option {
	return func(e *Engine) { e.injector = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithParallelism bounds the number of records ParseAll processes
// concurrently.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// NewEngine creates a parse engine over the default registries.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry:    schema.DefaultRegistry,
		injector:    inject.Default(),
		logger:      zap.NewNop(),
		parallelism: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// recorder accumulates problems in the order they are found, counting
// the hard ones.
type recorder struct {
	problems []schema.Problem
	hard     int
}

func (r *recorder) soft(problems ...schema.Problem) {
	r.problems = append(r.problems, problems...)
}

func (r *recorder) hardProblem(path, message string) {
	r.problems = append(r.problems, schema.Problem{Path: path, Message: message})
	r.hard++
}

// Parse converts raw plain data into a typed instance of t. The
// boundary shape follows the type kind: a keyed map for plain types, a
// bare array for collection wrappers, a bare scalar for scalar
// wrappers. It fails with *schema.ValidationError when a hard problem
// exists, or when strict and any problem exists; dependency-resolution
// failures and callback errors are returned as ordinary errors.
func (e *Engine) Parse(ctx context.Context, t *schema.Type, raw any, opts Options) (*schema.Instance, error) {
	if t == nil {
		return nil, fmt.Errorf("parse: nil type")
	}
	if !e.registry.Registered(t) {
		return nil, fmt.Errorf("parse %s: %w", t.Name, schema.ErrNotRegistered)
	}

	rec := &recorder{}
	inst, err := e.parseType(ctx, t, raw, "", rec)
	if err != nil {
		return nil, err
	}

	if rec.hard > 0 || (opts.Strict && len(rec.problems) > 0) {
		return nil, schema.NewValidationError(rec.problems)
	}

	inst.SetProblems(rec.problems)
	inst.SetRaw(raw)
	e.logger.Debug("parsed instance",
		zap.String("type", t.Name),
		zap.Int("problems", len(rec.problems)))
	return inst, nil
}

// Result is the discriminated outcome of SafeParse.
type Result struct {
	Success  bool
	Data     *schema.Instance
	Problems []schema.Problem
}

// SafeParse wraps Parse, converting a validation failure into an
// unsuccessful result instead of an error. Other errors still surface
// as errors.
func (e *Engine) SafeParse(ctx context.Context, t *schema.Type, raw any, opts Options) (*Result, error) {
	inst, err := e.Parse(ctx, t, raw, opts)
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return &Result{Problems: verr.Problems}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Data: inst, Problems: inst.Problems()}, nil
}

// ParsePartial processes only the keys present in raw: absent fields
// are neither required nor defaulted. In non-strict mode a field whose
// processing yields a hard problem is excluded from the result while
// its problem is still recorded and returned; in strict mode any
// recorded problem fails the call. Type-level validators never run
// because a partial record cannot satisfy whole-type invariants. Injected
// fields are never produced.
func (e *Engine) ParsePartial(ctx context.Context, t *schema.Type, raw any, opts Options) (map[string]any, []schema.Problem, error) {
	if t == nil {
		return nil, nil, fmt.Errorf("partial parse: nil type")
	}
	if !e.registry.Registered(t) {
		return nil, nil, fmt.Errorf("partial parse %s: %w", t.Name, schema.ErrNotRegistered)
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("partial parse %s: expected keyed map input, received %s",
			t.Name, schema.PlainKind(raw))
	}

	rec := &recorder{}
	out := make(map[string]any)
	for _, f := range t.MergedFields() {
		if f.Injected {
			continue
		}
		value, present := m[f.Name]
		if !present {
			continue
		}
		before := rec.hard
		v, err := e.fieldValue(ctx, f, value, f.Name, "", rec)
		if err != nil {
			return nil, nil, err
		}
		if rec.hard > before {
			continue
		}
		out[f.Name] = v
	}

	if opts.Strict && len(rec.problems) > 0 {
		return nil, nil, schema.NewValidationError(rec.problems)
	}
	return out, rec.problems, nil
}

// PartialResult is the discriminated outcome of SafeParsePartial.
type PartialResult struct {
	Success  bool
	Data     map[string]any
	Problems []schema.Problem
}

// SafeParsePartial wraps ParsePartial the way SafeParse wraps Parse.
func (e *Engine) SafeParsePartial(ctx context.Context, t *schema.Type, raw any, opts Options) (*PartialResult, error) {
	data, problems, err := e.ParsePartial(ctx, t, raw, opts)
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return &PartialResult{Problems: verr.Problems}, nil
	}
	if err != nil {
		return nil, err
	}
	return &PartialResult{Success: true, Data: data, Problems: problems}, nil
}

// ParseAll parses independent records with bounded parallelism. Results
// index-match the input. Any failure, including a validation failure on
// a single record, aborts the batch.
func (e *Engine) ParseAll(ctx context.Context, t *schema.Type, raws []any, opts Options) ([]*schema.Instance, error) {
	out := make([]*schema.Instance, len(raws))
	err := concurrent.Run(ctx, len(raws), e.parallelism, func(ctx context.Context, i int) error {
		inst, err := e.Parse(ctx, t, raws[i], opts)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = inst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseType parses one record of type t, collecting problems with paths
// rebased under base. Wrapper boundary shapes are folded into the
// single wrapped field before the per-field pass.
func (e *Engine) parseType(ctx context.Context, t *schema.Type, raw any, base string, rec *recorder) (*schema.Instance, error) {
	inst := schema.NewInstance(t)

	var m map[string]any
	switch t.Kind {
	case schema.CollectionWrapper, schema.ScalarWrapper:
		m = map[string]any{t.WrapperField().Name: raw}
	default:
		mm, ok := raw.(map[string]any)
		if !ok {
			rec.hardProblem(base, fmt.Sprintf("Expected object but received %s", schema.PlainKind(raw)))
			return inst, nil
		}
		m = mm
	}

	for _, f := range t.MergedFields() {
		if err := e.parseField(ctx, f, m, inst, base, rec); err != nil {
			return nil, err
		}
	}

	for _, tv := range t.MergedValidators() {
		ps, err := tv(ctx, inst)
		if err != nil {
			return nil, fmt.Errorf("type validator for %s: %w", t.Name, err)
		}
		for _, p := range ps {
			rec.soft(schema.Problem{
				Path:    schema.RebasePath(base, base, p.Path),
				Message: p.Message,
			})
		}
	}

	return inst, nil
}

// parseField handles one declared field: injection, absence (defaults,
// optionality, required), then the value steps.
func (e *Engine) parseField(ctx context.Context, f *schema.Field, raw map[string]any, inst *schema.Instance, base string, rec *recorder) error {
	path := schema.JoinPath(base, f.Name)

	if f.Injected {
		v, err := e.injector.Resolve(ctx, f.Token)
		if err != nil {
			return fmt.Errorf("inject %s: %w", path, err)
		}
		inst.Set(f.Name, v)
		return nil
	}

	value, present := raw[f.Name]
	if !present {
		if f.Default != nil {
			v, err := f.Default.Resolve(ctx)
			if err != nil {
				return fmt.Errorf("default for %s: %w", path, err)
			}
			inst.Set(f.Name, v)
			return nil
		}
		if f.Optional {
			return nil
		}
		rec.hardProblem(path, msgMissing)
		return nil
	}

	v, err := e.fieldValue(ctx, f, value, path, base, rec)
	if err != nil {
		return err
	}
	inst.Set(f.Name, v)
	return nil
}

// fieldValue applies the null, deserialization, and validator steps to
// a present value, per element for arrays.
func (e *Engine) fieldValue(ctx context.Context, f *schema.Field, value any, path, base string, rec *recorder) (any, error) {
	if value == nil {
		if f.Optional {
			return nil, nil
		}
		rec.hardProblem(path, msgNull)
		return nil, nil
	}

	if f.Kind == schema.KindAny {
		return value, nil
	}

	if f.Array {
		elems, ok := schema.AsSlice(value)
		if !ok {
			rec.hardProblem(path, fmt.Sprintf("Expected array but received %s", schema.PlainKind(value)))
			return nil, nil
		}
		out := make([]any, len(elems))
		for i, ev := range elems {
			ep := schema.IndexPath(path, i)
			if ev == nil {
				if !f.Sparse {
					rec.hardProblem(ep, msgNull)
				}
				continue
			}
			dv, ok, err := e.decodeScalar(ctx, f, ev, ep, rec)
			if err != nil {
				return nil, err
			}
			out[i] = dv
			if !ok {
				continue
			}
			ps, err := validation.Run(ctx, f.Validators, dv, ep, base)
			if err != nil {
				return nil, err
			}
			rec.soft(ps...)
		}
		ps, err := validation.Run(ctx, f.ArrayValidators, out, path, base)
		if err != nil {
			return nil, err
		}
		rec.soft(ps...)
		return out, nil
	}

	dv, ok, err := e.decodeScalar(ctx, f, value, path, rec)
	if err != nil || !ok {
		return dv, err
	}
	ps, err := validation.Run(ctx, f.Validators, dv, path, base)
	if err != nil {
		return nil, err
	}
	rec.soft(ps...)
	return dv, nil
}

// defaultEngine backs the package-level functions.
var defaultEngine = NewEngine()

// Parse parses with the default engine.
func Parse(ctx context.Context, t *schema.Type, raw any, opts Options) (*schema.Instance, error) {
	return defaultEngine.Parse(ctx, t, raw, opts)
}

// SafeParse parses safely with the default engine.
func SafeParse(ctx context.Context, t *schema.Type, raw any, opts Options) (*Result, error) {
	return defaultEngine.SafeParse(ctx, t, raw, opts)
}

// ParsePartial partially parses with the default engine.
func ParsePartial(ctx context.Context, t *schema.Type, raw any, opts Options) (map[string]any, []schema.Problem, error) {
	return defaultEngine.ParsePartial(ctx, t, raw, opts)
}

// SafeParsePartial partially parses safely with the default engine.
func SafeParsePartial(ctx context.Context, t *schema.Type, raw any, opts Options) (*PartialResult, error) {
	return defaultEngine.SafeParsePartial(ctx, t, raw, opts)
}
