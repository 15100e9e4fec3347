// Schema-builder front end: constructor helpers and functional options
// for assembling type declarations without writing struct literals.
package schema

// TypeOption configures a type declaration under construction.
type TypeOption func(*Type)

// NewType assembles a type declaration from options.
func NewType(name string, opts ...TypeOption) *Type {
	t := &Type{Name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extends sets the supertype.
func Extends(parent *Type) TypeOption {
	return func(t *Type) { t.Extends = parent }
}

// WithFields appends field declarations in order.
func WithFields(fields ...*Field) TypeOption {
	return func(t *Type) { t.Fields = append(t.Fields, fields...) }
}

// WithTypeValidators appends type-level validators.
func WithTypeValidators(validators ...TypeValidator) TypeOption {
	return func(t *Type) { t.Validators = append(t.Validators, validators...) }
}

// AsCollectionWrapper marks the type as unwrapping to a bare array.
func AsCollectionWrapper() TypeOption {
	return func(t *Type) { t.Kind = CollectionWrapper }
}

// AsScalarWrapper marks the type as unwrapping to a bare scalar.
func AsScalarWrapper() TypeOption {
	return func(t *Type) { t.Kind = ScalarWrapper }
}

// FieldOption configures a field declaration under construction.
type FieldOption func(*Field)

// NewField assembles a field declaration from options.
func NewField(name string, kind Kind, opts ...FieldOption) *Field {
	f := &Field{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StringField declares a string field.
func StringField(name string, opts ...FieldOption) *Field {
	return NewField(name, KindString, opts...)
}

// NumberField declares a numeric field.
func NumberField(name string, opts ...FieldOption) *Field {
	return NewField(name, KindNumber, opts...)
}

// BoolField declares a boolean field.
func BoolField(name string, opts ...FieldOption) *Field {
	return NewField(name, KindBool, opts...)
}

// TimeField declares a date field.
func TimeField(name string, opts ...FieldOption) *Field {
	return NewField(name, KindTime, opts...)
}

// BigIntField declares a large-integer field.
func BigIntField(name string, opts ...FieldOption) *Field {
	return NewField(name, KindBigInt, opts...)
}

// AnyField declares a passthrough field that bypasses the entire
// type-check and validator pipeline.
func AnyField(name string) *Field {
	return NewField(name, KindAny)
}

// DeclaredField declares a nested field whose target type is resolved
// lazily through thunk.
func DeclaredField(name string, thunk Thunk, opts ...FieldOption) *Field {
	return NewField(name, KindDeclared, append([]FieldOption{func(f *Field) {
		f.Elem = thunk
	}}, opts...)...)
}

// DiscriminatedField declares a polymorphic nested field. During parse
// the string value under key inside the raw value selects the concrete
// registered type by name.
func DiscriminatedField(name, key string, opts ...FieldOption) *Field {
	return NewField(name, KindDeclared, append([]FieldOption{func(f *Field) {
		f.Discriminator = key
	}}, opts...)...)
}

// InjectedField declares a field resolved from the dependency registry
// by token instead of from raw input.
func InjectedField(name string, token any, kind Kind, opts ...FieldOption) *Field {
	return NewField(name, kind, append([]FieldOption{func(f *Field) {
		f.Injected = true
		f.Token = token
	}}, opts...)...)
}

// Array sets array cardinality.
func Array() FieldOption {
	return func(f *Field) { f.Array = true }
}

// SparseArray sets array cardinality permitting null elements.
func SparseArray() FieldOption {
	return func(f *Field) {
		f.Array = true
		f.Sparse = true
	}
}

// Optional marks the field as optional.
func Optional() FieldOption {
	return func(f *Field) { f.Optional = true }
}

// Immutable marks the field as ignored by the update engine.
func Immutable() FieldOption {
	return func(f *Field) { f.Immutable = true }
}

// WithDefault declares a static default value.
func WithDefault(value any) FieldOption {
	return func(f *Field) { f.Default = &Default{Value: value} }
}

// WithDefaultFunc declares a default factory, invoked fresh per parse.
func WithDefaultFunc(fn DefaultFunc) FieldOption {
	return func(f *Field) { f.Default = &Default{Func: fn} }
}

// WithValidators appends per-value (or per-element) validators.
func WithValidators(validators ...FieldValidator) FieldOption {
	return func(f *Field) { f.Validators = append(f.Validators, validators...) }
}

// WithArrayValidators appends whole-array validators.
func WithArrayValidators(validators ...FieldValidator) FieldOption {
	return func(f *Field) { f.ArrayValidators = append(f.ArrayValidators, validators...) }
}

// WithSerialize sets a custom serialize override.
func WithSerialize(fn SerializeFunc) FieldOption {
	return func(f *Field) { f.Serialize = fn }
}

// WithDeserialize sets a custom deserialize override.
func WithDeserialize(fn DeserializeFunc) FieldOption {
	return func(f *Field) { f.Deserialize = fn }
}

// WithEquals sets a custom equality override used by the diff engine.
func WithEquals(fn EqualsFunc) FieldOption {
	return func(f *Field) { f.Equals = fn }
}
