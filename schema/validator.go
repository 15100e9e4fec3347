package schema

import (
	"fmt"
	"strings"
)

// declarationError reports a structural problem in a type declaration.
type declarationError struct {
	Type    string
	Field   string
	Message string
}

// Error implements the error interface
func (e *declarationError) Error() string {
	var b strings.Builder
	if e.Type != "" {
		b.WriteString(e.Type)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// validateDeclaration checks the structural invariants of a type
// declaration at registration time.
func validateDeclaration(t *Type) error {
	var errs []*declarationError
	add := func(field, message string) {
		errs = append(errs, &declarationError{Type: t.Name, Field: field, Message: message})
	}

	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name == "" {
			add("", "field with empty name")
			continue
		}
		if seen[f.Name] {
			add(f.Name, "duplicate field declaration")
		}
		seen[f.Name] = true

		if f.Kind == KindAny && (f.Array || f.Optional || f.Sparse) {
			add(f.Name, "passthrough cannot combine with array, optional, or sparse")
		}
		if f.Sparse && !f.Array {
			add(f.Name, "sparse requires array cardinality")
		}
		if f.Kind == KindDeclared && f.Elem == nil && f.Discriminator == "" {
			add(f.Name, "declared field needs a type thunk or a discriminator")
		}
		if f.Discriminator != "" && f.Kind != KindDeclared {
			add(f.Name, "discriminator requires a declared field kind")
		}
		if f.Injected && f.Token == nil {
			add(f.Name, "injected field needs a resolution token")
		}
	}

	fields := t.MergedFields()
	switch t.Kind {
	case CollectionWrapper:
		if len(fields) != 1 || !fields[0].Array {
			add("", "collection-wrapper must declare exactly one array field")
		}
	case ScalarWrapper:
		if len(fields) != 1 || fields[0].Array {
			add("", "scalar-wrapper must declare exactly one scalar field")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("declaration check failed with %d errors:\n%s",
		len(errs), strings.Join(msgs, "\n"))
}
