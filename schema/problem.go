package schema

import (
	"fmt"
	"strings"
)

// Problem is a single path-addressed error record. Paths are dotted for
// nested fields and bracket-indexed for array elements, e.g.
// "address.street" or "scores[2]". An empty path means the problem
// applies to the value as a whole and is rewritten to the owning
// field's path when attached.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// String returns the "path: message" form of the problem.
func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// JoinPath appends a field name to a base path.
func JoinPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "." + name
}

// IndexPath appends an array index to a field path.
func IndexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// RebasePath relocates a problem path reported by a nested operation
// under base. An empty path becomes fallback (the owning field's path);
// a bracketed path attaches directly to base.
func RebasePath(base, fallback, path string) string {
	if path == "" {
		return fallback
	}
	if base == "" {
		return path
	}
	if strings.HasPrefix(path, "[") {
		return base + path
	}
	return base + "." + path
}

// ValidationError is an aggregate failure carrying one or more problems
// in the order they were recorded.
type ValidationError struct {
	Problems []Problem
}

// NewValidationError creates a ValidationError from a non-empty problem
// list.
func NewValidationError(problems []Problem) *ValidationError {
	return &ValidationError{Problems: problems}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d error(s)", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n")
		b.WriteString(p.String())
	}
	return b.String()
}
