// Package schema defines the declarative type model for remodel: field and
// type declarations, the metadata registry, typed instances, and the
// path-addressed problem records shared by every engine in the module.
package schema

import (
	"context"
)

// Kind identifies the declared value kind of a field.
type Kind int

const (
	// KindString accepts exactly a Go string.
	KindString Kind = iota
	// KindNumber accepts any Go numeric value, never a numeric string.
	KindNumber
	// KindBool accepts exactly a Go bool.
	KindBool
	// KindTime accepts a time.Time or an ISO-8601 string.
	KindTime
	// KindBigInt accepts a *big.Int, a Go integer, or a pure digit string.
	KindBigInt
	// KindAny is the passthrough kind: the value bypasses the entire
	// type-check and validator pipeline.
	KindAny
	// KindDeclared recurses into another registered type, resolved
	// lazily through the field's thunk or its discriminator.
	KindDeclared
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTime:
		return "date"
	case KindBigInt:
		return "bigint"
	case KindAny:
		return "any"
	case KindDeclared:
		return "object"
	default:
		return "unknown"
	}
}

// TypeKind identifies the boundary shape of a declared type.
type TypeKind int

const (
	// Plain types parse from and serialize to a keyed map.
	Plain TypeKind = iota
	// CollectionWrapper types wrap exactly one array field and unwrap
	// to a bare array at the boundary.
	CollectionWrapper
	// ScalarWrapper types wrap exactly one scalar field and unwrap to
	// a bare scalar at the boundary.
	ScalarWrapper
)

// String returns the string representation of the type kind
func (k TypeKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case CollectionWrapper:
		return "collection-wrapper"
	case ScalarWrapper:
		return "scalar-wrapper"
	default:
		return "unknown"
	}
}

// Thunk lazily resolves a field's target type. It is invoked every time
// the field is processed, never at declaration time, so forward
// references between mutually recursive types resolve correctly once
// both types are registered. Thunks must be idempotent and free of side
// effects.
type Thunk func() *Type

// FieldValidator checks a single deserialized value (or one array
// element) and returns zero or more soft problems. A problem with an
// empty path is attached at the field's (or element's) own path. A
// non-nil error aborts the entire enclosing operation.
type FieldValidator func(ctx context.Context, value any) ([]Problem, error)

// TypeValidator checks a fully constructed instance and returns zero or
// more soft problems at their stated paths. A non-nil error aborts the
// entire enclosing operation.
type TypeValidator func(ctx context.Context, inst *Instance) ([]Problem, error)

// DefaultFunc produces a field's default value. It is invoked fresh on
// every parse that needs it.
type DefaultFunc func(ctx context.Context) (any, error)

// SerializeFunc overrides a field's serialized representation.
type SerializeFunc func(value any) (any, error)

// DeserializeFunc overrides a field's deserialization. A non-nil error
// is recorded as a hard problem at the field's path.
type DeserializeFunc func(ctx context.Context, value any) (any, error)

// EqualsFunc overrides equality for a field's values.
type EqualsFunc func(a, b any) bool

// Default declares a field default: a static value or a factory.
// Factories are invoked fresh on every use.
type Default struct {
	Value any
	Func  DefaultFunc
}

// Resolve produces the default value.
func (d *Default) Resolve(ctx context.Context) (any, error) {
	if d.Func != nil {
		return d.Func(ctx)
	}
	return d.Value, nil
}

// Field declares a single field of a type.
type Field struct {
	Name string
	Kind Kind

	// Elem resolves the target type for KindDeclared fields. It is nil
	// for discriminated fields, which resolve by registered name.
	Elem Thunk

	// Discriminator names the key inside the raw value whose string
	// value selects the concrete registered type during parse.
	Discriminator string

	Array     bool
	Sparse    bool
	Optional  bool
	Immutable bool

	Default *Default

	// Validators run per scalar value or per array element.
	Validators []FieldValidator
	// ArrayValidators run once against the whole deserialized array.
	ArrayValidators []FieldValidator

	Serialize   SerializeFunc
	Deserialize DeserializeFunc
	Equals      EqualsFunc

	// Injected fields are resolved from the dependency registry by
	// Token, ignoring any raw input under the field's key.
	Injected bool
	Token    any
}

// Type declares a named record shape: its ordered fields, its supertype,
// its boundary kind, and its type-level validators.
type Type struct {
	Name       string
	Extends    *Type
	Fields     []*Field
	Validators []TypeValidator
	Kind       TypeKind
}

// MergedFields returns the field declarations merged across the
// supertype chain. Each field name appears once; the closest declaration
// wins, and an overriding field keeps its supertype position. Fields
// declared only by the subtype are appended in declaration order.
func (t *Type) MergedFields() []*Field {
	if t.Extends == nil {
		return t.Fields
	}

	merged := append([]*Field(nil), t.Extends.MergedFields()...)
	index := make(map[string]int, len(merged))
	for i, f := range merged {
		index[f.Name] = i
	}

	for _, f := range t.Fields {
		if i, ok := index[f.Name]; ok {
			merged[i] = f
			continue
		}
		index[f.Name] = len(merged)
		merged = append(merged, f)
	}
	return merged
}

// FieldByName returns the merged declaration for name, or nil.
func (t *Type) FieldByName(name string) *Field {
	for _, f := range t.MergedFields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// WrapperField returns the single wrapped field of a wrapper type. It
// returns nil for plain types; registration guarantees wrapper types
// declare exactly one field.
func (t *Type) WrapperField() *Field {
	if t.Kind == Plain {
		return nil
	}
	fields := t.MergedFields()
	if len(fields) != 1 {
		return nil
	}
	return fields[0]
}

// MergedValidators returns the type-level validators collected across
// the supertype chain, supertype validators first.
func (t *Type) MergedValidators() []TypeValidator {
	if t.Extends == nil {
		return t.Validators
	}
	return append(append([]TypeValidator(nil), t.Extends.MergedValidators()...), t.Validators...)
}
