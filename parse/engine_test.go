package parse

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/remodel/inject"
	"github.com/conduit-lang/remodel/schema"
	"github.com/conduit-lang/remodel/validation"
)

func newTestEngine(t *testing.T, types ...*schema.Type) (*Engine, *inject.Registry) {
	t.Helper()
	registry := schema.NewRegistry()
	for _, typ := range types {
		require.NoError(t, registry.Register(typ))
	}
	injector := inject.NewRegistry()
	return NewEngine(WithRegistry(registry), WithInjector(injector)), injector
}

func TestParse_RequiredFieldMissing(t *testing.T) {
	user := schema.NewType("User", schema.WithFields(schema.StringField("name")))
	engine, _ := newTestEngine(t, user)

	for _, strict := range []bool{false, true} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			_, err := engine.Parse(context.Background(), user, map[string]any{}, Options{Strict: strict})
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Problems, 1)
			assert.Equal(t, "name", verr.Problems[0].Path)
			assert.Equal(t, "Required property is missing from input", verr.Problems[0].Message)
		})
	}
}

func TestParse_SoftProblemTolerance(t *testing.T) {
	user := schema.NewType("User", schema.WithFields(
		schema.StringField("name", schema.WithValidators(validation.MinLength(3))),
	))
	engine, _ := newTestEngine(t, user)
	raw := map[string]any{"name": "Jo"}

	inst, err := engine.Parse(context.Background(), user, raw, Options{})
	require.NoError(t, err)
	require.Len(t, inst.Problems(), 1)
	assert.Equal(t, "name", inst.Problems()[0].Path)

	_, err = engine.Parse(context.Background(), user, raw, Options{Strict: true})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParse_ExactRuntimeTypeMatch(t *testing.T) {
	tests := []struct {
		name    string
		field   *schema.Field
		value   any
		wantMsg string
	}{
		{"numeric string is not a number", schema.NumberField("v"), "42", "Expected number but received string"},
		{"number is not a string", schema.StringField("v"), 42, "Expected string but received number"},
		{"string is not a boolean", schema.BoolField("v"), "true", "Expected boolean but received string"},
		{"number is not a date", schema.TimeField("v"), 12345, "Expected date but received number"},
		{"bool is not a bigint", schema.BigIntField("v"), true, "Expected bigint but received boolean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := schema.NewType("T", schema.WithFields(tt.field))
			engine, _ := newTestEngine(t, typ)

			_, err := engine.Parse(context.Background(), typ, map[string]any{"v": tt.value}, Options{})
			var verr *schema.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Problems, 1)
			assert.Equal(t, "v", verr.Problems[0].Path)
			assert.Equal(t, tt.wantMsg, verr.Problems[0].Message)
		})
	}
}

func TestParse_NullHandling(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(
		schema.StringField("required"),
		schema.StringField("nickname", schema.Optional(), schema.WithValidators(validation.MinLength(2))),
	))
	engine, _ := newTestEngine(t, typ)

	_, err := engine.Parse(context.Background(), typ, map[string]any{"required": nil}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Cannot be null or undefined", verr.Problems[0].Message)

	// An optional null is assigned verbatim and skips validators.
	inst, err := engine.Parse(context.Background(), typ,
		map[string]any{"required": "ok", "nickname": nil}, Options{})
	require.NoError(t, err)
	v, ok := inst.Get("nickname")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Empty(t, inst.Problems())
}

func TestParse_OptionalAbsentLeftUnset(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(
		schema.StringField("required"),
		schema.StringField("nickname", schema.Optional()),
	))
	engine, _ := newTestEngine(t, typ)

	inst, err := engine.Parse(context.Background(), typ, map[string]any{"required": "ok"}, Options{})
	require.NoError(t, err)
	assert.False(t, inst.Has("nickname"))
}

func TestParse_Defaults(t *testing.T) {
	calls := 0
	typ := schema.NewType("T", schema.WithFields(
		schema.StringField("role", schema.WithDefault("member")),
		schema.NumberField("seq", schema.WithDefaultFunc(func(ctx context.Context) (any, error) {
			calls++
			return calls, nil
		})),
	))
	engine, _ := newTestEngine(t, typ)

	first, err := engine.Parse(context.Background(), typ, map[string]any{}, Options{})
	require.NoError(t, err)
	second, err := engine.Parse(context.Background(), typ, map[string]any{}, Options{})
	require.NoError(t, err)

	role, _ := first.Get("role")
	assert.Equal(t, "member", role)

	// Factories are invoked fresh on each parse.
	a, _ := first.Get("seq")
	b, _ := second.Get("seq")
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestParse_ArrayElementHardPath(t *testing.T) {
	stats := schema.NewType("Stats", schema.WithFields(
		schema.NumberField("scores", schema.Array()),
	))
	engine, _ := newTestEngine(t, stats)

	_, err := engine.Parse(context.Background(), stats,
		map[string]any{"scores": []any{1, "x", 3}}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 1)
	assert.Equal(t, "scores[1]", verr.Problems[0].Path)
	assert.Equal(t, "Expected number but received string", verr.Problems[0].Message)
}

func TestParse_ArrayShapeRequired(t *testing.T) {
	stats := schema.NewType("Stats", schema.WithFields(
		schema.NumberField("scores", schema.Array()),
	))
	engine, _ := newTestEngine(t, stats)

	_, err := engine.Parse(context.Background(), stats,
		map[string]any{"scores": 7}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Expected array but received number", verr.Problems[0].Message)
}

func TestParse_SparseArray(t *testing.T) {
	dense := schema.NewType("Dense", schema.WithFields(
		schema.NumberField("xs", schema.Array()),
	))
	sparse := schema.NewType("Sparse", schema.WithFields(
		schema.NumberField("xs", schema.SparseArray()),
	))
	engine, _ := newTestEngine(t, dense, sparse)
	raw := map[string]any{"xs": []any{1, nil, 3}}

	_, err := engine.Parse(context.Background(), dense, raw, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "xs[1]", verr.Problems[0].Path)

	inst, err := engine.Parse(context.Background(), sparse, raw, Options{})
	require.NoError(t, err)
	xs, _ := inst.Get("xs")
	assert.Equal(t, []any{1, nil, 3}, xs)
}

func TestParse_NestedDeclaredType(t *testing.T) {
	address := schema.NewType("Address", schema.WithFields(
		schema.StringField("street"),
	))
	user := schema.NewType("User", schema.WithFields(
		schema.StringField("name"),
		schema.DeclaredField("address", func() *schema.Type { return address }),
	))
	engine, _ := newTestEngine(t, user, address)

	_, err := engine.Parse(context.Background(), user, map[string]any{
		"name":    "Ann",
		"address": map[string]any{"street": 5},
	}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 1)
	assert.Equal(t, "address.street", verr.Problems[0].Path)

	inst, err := engine.Parse(context.Background(), user, map[string]any{
		"name":    "Ann",
		"address": map[string]any{"street": "Main St"},
	}, Options{})
	require.NoError(t, err)
	nested, _ := inst.Get("address")
	require.IsType(t, &schema.Instance{}, nested)
	street, _ := nested.(*schema.Instance).Get("street")
	assert.Equal(t, "Main St", street)
}

func TestParse_MutuallyRecursiveThunks(t *testing.T) {
	// Thunks close over variables assigned after both declarations
	// exist, the forward-reference pattern the lazy resolver enables.
	var node *schema.Type
	node = schema.NewType("Node", schema.WithFields(
		schema.StringField("label"),
		schema.DeclaredField("children", func() *schema.Type { return node },
			schema.Array(), schema.Optional()),
	))
	engine, _ := newTestEngine(t, node)

	inst, err := engine.Parse(context.Background(), node, map[string]any{
		"label": "root",
		"children": []any{
			map[string]any{"label": "leaf"},
		},
	}, Options{})
	require.NoError(t, err)

	children, _ := inst.Get("children")
	elems := children.([]any)
	require.Len(t, elems, 1)
	label, _ := elems[0].(*schema.Instance).Get("label")
	assert.Equal(t, "leaf", label)
}

func TestParse_Discriminated(t *testing.T) {
	circle := schema.NewType("circle", schema.WithFields(
		schema.StringField("kind"),
		schema.NumberField("radius"),
	))
	square := schema.NewType("square", schema.WithFields(
		schema.StringField("kind"),
		schema.NumberField("side"),
	))
	drawing := schema.NewType("Drawing", schema.WithFields(
		schema.DiscriminatedField("shape", "kind"),
	))
	engine, _ := newTestEngine(t, circle, square, drawing)

	inst, err := engine.Parse(context.Background(), drawing, map[string]any{
		"shape": map[string]any{"kind": "circle", "radius": 2.5},
	}, Options{})
	require.NoError(t, err)
	shape, _ := inst.Get("shape")
	assert.Same(t, circle, shape.(*schema.Instance).Type())

	_, err = engine.Parse(context.Background(), drawing, map[string]any{
		"shape": map[string]any{"kind": "triangle"},
	}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `Unknown kind discriminator value "triangle"`, verr.Problems[0].Message)

	_, err = engine.Parse(context.Background(), drawing, map[string]any{
		"shape": map[string]any{"radius": 1},
	}, Options{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `Missing "kind" discriminator property`, verr.Problems[0].Message)
}

func TestParse_InjectedField(t *testing.T) {
	token := inject.NewToken("request-id")
	typ := schema.NewType("Audited", schema.WithFields(
		schema.StringField("note"),
		schema.InjectedField("requestID", token, schema.KindString),
	))
	engine, injector := newTestEngine(t, typ)
	injector.Configure(inject.Options{Providers: []inject.Provider{
		{Token: token, Value: "req-42"},
	}})

	// The raw value under the injected key is ignored.
	inst, err := engine.Parse(context.Background(), typ, map[string]any{
		"note":      "hello",
		"requestID": "spoofed",
	}, Options{})
	require.NoError(t, err)
	v, _ := inst.Get("requestID")
	assert.Equal(t, "req-42", v)
}

func TestParse_InjectionFailureAborts(t *testing.T) {
	token := inject.NewToken("absent")
	typ := schema.NewType("Audited", schema.WithFields(
		schema.InjectedField("dep", token, schema.KindAny),
	))
	engine, _ := newTestEngine(t, typ)

	_, err := engine.Parse(context.Background(), typ, map[string]any{}, Options{})
	require.Error(t, err)

	// A resolution failure is a distinct error, never a ValidationError.
	var verr *schema.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, inject.ErrNotFound)
}

func TestParse_PassthroughUnchecked(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(schema.AnyField("blob")))
	engine, _ := newTestEngine(t, typ)

	payload := map[string]any{"anything": []any{1, "two", nil}}
	inst, err := engine.Parse(context.Background(), typ,
		map[string]any{"blob": payload}, Options{Strict: true})
	require.NoError(t, err)
	v, _ := inst.Get("blob")
	assert.Equal(t, payload, v)
}

func TestParse_CollectionWrapperTakesBareArray(t *testing.T) {
	tags := schema.NewType("Tags", schema.AsCollectionWrapper(), schema.WithFields(
		schema.StringField("items", schema.Array()),
	))
	engine, _ := newTestEngine(t, tags)

	inst, err := engine.Parse(context.Background(), tags, []any{"a", "b"}, Options{})
	require.NoError(t, err)
	items, _ := inst.Get("items")
	assert.Equal(t, []any{"a", "b"}, items)
}

func TestParse_ScalarWrapperTakesBareScalar(t *testing.T) {
	count := schema.NewType("Count", schema.AsScalarWrapper(), schema.WithFields(
		schema.NumberField("value"),
	))
	engine, _ := newTestEngine(t, count)

	inst, err := engine.Parse(context.Background(), count, 41, Options{})
	require.NoError(t, err)
	v, _ := inst.Get("value")
	assert.Equal(t, 41, v)
}

func TestParse_TimeAndBigInt(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(
		schema.TimeField("at"),
		schema.BigIntField("total"),
	))
	engine, _ := newTestEngine(t, typ)

	inst, err := engine.Parse(context.Background(), typ, map[string]any{
		"at":    "2024-05-01T10:30:00.250Z",
		"total": "-123456789012345678901234567890",
	}, Options{})
	require.NoError(t, err)

	at, _ := inst.Get("at")
	want := time.Date(2024, 5, 1, 10, 30, 0, 250_000_000, time.UTC)
	assert.True(t, at.(time.Time).Equal(want))

	total, _ := inst.Get("total")
	expect, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	assert.Zero(t, total.(*big.Int).Cmp(expect))

	_, err = engine.Parse(context.Background(), typ, map[string]any{
		"at":    "yesterday",
		"total": "12e5",
	}, Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Problems, 2)
	assert.Equal(t, `Invalid ISO-8601 date string "yesterday"`, verr.Problems[0].Message)
	assert.Equal(t, `Invalid bigint string "12e5"`, verr.Problems[1].Message)
}

func TestParse_TypeLevelValidators(t *testing.T) {
	typ := schema.NewType("Range",
		schema.WithFields(
			schema.NumberField("lo"),
			schema.NumberField("hi"),
		),
		schema.WithTypeValidators(func(ctx context.Context, inst *schema.Instance) ([]schema.Problem, error) {
			lo, _ := inst.Get("lo")
			hi, _ := inst.Get("hi")
			if lo.(int) > hi.(int) {
				return []schema.Problem{{Path: "hi", Message: "must not be below lo"}}, nil
			}
			return nil, nil
		}),
	)
	engine, _ := newTestEngine(t, typ)
	raw := map[string]any{"lo": 5, "hi": 1}

	inst, err := engine.Parse(context.Background(), typ, raw, Options{})
	require.NoError(t, err)
	require.Len(t, inst.Problems(), 1)
	assert.Equal(t, "hi", inst.Problems()[0].Path)

	_, err = engine.Parse(context.Background(), typ, raw, Options{Strict: true})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParse_ValidatorErrorAborts(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(
		schema.StringField("v", schema.WithValidators(
			func(ctx context.Context, value any) ([]schema.Problem, error) {
				return nil, errors.New("backend unavailable")
			},
		)),
	))
	engine, _ := newTestEngine(t, typ)

	_, err := engine.Parse(context.Background(), typ, map[string]any{"v": "x"}, Options{})
	require.Error(t, err)
	var verr *schema.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestParse_TopLevelShape(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(schema.StringField("a")))
	engine, _ := newTestEngine(t, typ)

	_, err := engine.Parse(context.Background(), typ, "not a map", Options{})
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Expected object but received string", verr.Problems[0].Message)
}

func TestParse_UnregisteredType(t *testing.T) {
	engine, _ := newTestEngine(t)
	typ := schema.NewType("Ghost", schema.WithFields(schema.StringField("a")))

	_, err := engine.Parse(context.Background(), typ, map[string]any{"a": "x"}, Options{})
	assert.ErrorIs(t, err, schema.ErrNotRegistered)
}

func TestSafeParse(t *testing.T) {
	user := schema.NewType("User", schema.WithFields(
		schema.StringField("name", schema.WithValidators(validation.MinLength(3))),
	))
	engine, _ := newTestEngine(t, user)

	res, err := engine.SafeParse(context.Background(), user, map[string]any{}, Options{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Problems, 1)

	res, err = engine.SafeParse(context.Background(), user, map[string]any{"name": "Jo"}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Len(t, res.Problems, 1)
}

func TestParseAll(t *testing.T) {
	typ := schema.NewType("T", schema.WithFields(schema.StringField("v")))
	engine, _ := newTestEngine(t, typ)

	raws := make([]any, 50)
	for i := range raws {
		raws[i] = map[string]any{"v": fmt.Sprintf("item-%d", i)}
	}

	insts, err := engine.ParseAll(context.Background(), typ, raws, Options{})
	require.NoError(t, err)
	require.Len(t, insts, 50)
	for i, inst := range insts {
		v, _ := inst.Get("v")
		assert.Equal(t, fmt.Sprintf("item-%d", i), v)
	}

	raws[17] = map[string]any{}
	_, err = engine.ParseAll(context.Background(), typ, raws, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 17")
}
