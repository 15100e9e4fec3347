package schema

// Instance is a typed value belonging to a registered type. Field values
// live in a keyed map: an absent key means the field is unset, a stored
// nil is an explicit null. An instance optionally carries a reference to
// the raw input it was parsed from and a wholesale-replaceable list of
// currently attached problems.
type Instance struct {
	typ      *Type
	values   map[string]any
	raw      any
	problems []Problem
}

// NewInstance creates an empty instance of t.
func NewInstance(t *Type) *Instance {
	return &Instance{
		typ:    t,
		values: make(map[string]any),
	}
}

// Type returns the declared type of the instance.
func (i *Instance) Type() *Type {
	return i.typ
}

// Get returns the value stored under name. The second return reports
// whether the field is set at all; a set field may still hold nil.
func (i *Instance) Get(name string) (any, bool) {
	v, ok := i.values[name]
	return v, ok
}

// Set stores a value under name.
func (i *Instance) Set(name string, value any) {
	i.values[name] = value
}

// Unset removes name entirely, distinct from setting it to nil.
func (i *Instance) Unset(name string) {
	delete(i.values, name)
}

// Has reports whether name is set.
func (i *Instance) Has(name string) bool {
	_, ok := i.values[name]
	return ok
}

// Values returns a shallow copy of the current field values.
func (i *Instance) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// Raw returns the raw input the instance was parsed from, if recorded.
func (i *Instance) Raw() any {
	return i.raw
}

// SetRaw records the raw input reference.
func (i *Instance) SetRaw(raw any) {
	i.raw = raw
}

// Problems returns the currently attached problem list.
func (i *Instance) Problems() []Problem {
	return i.problems
}

// SetProblems replaces the attached problem list wholesale, even with an
// empty list.
func (i *Instance) SetProblems(problems []Problem) {
	i.problems = problems
}
