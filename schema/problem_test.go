package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "name", JoinPath("", "name"))
	assert.Equal(t, "address.street", JoinPath("address", "street"))
}

func TestIndexPath(t *testing.T) {
	assert.Equal(t, "scores[2]", IndexPath("scores", 2))
	assert.Equal(t, "a.b[0]", IndexPath("a.b", 0))
}

func TestRebasePath(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		fallback string
		path     string
		want     string
	}{
		{"empty path takes fallback", "", "name", "", "name"},
		{"stated path at top level", "", "name", "other", "other"},
		{"nested field path", "address", "address.street", "street", "address.street"},
		{"nested empty path", "address", "address.street", "", "address.street"},
		{"bracketed path attaches directly", "scores", "scores", "[2]", "scores[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RebasePath(tt.base, tt.fallback, tt.path))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError([]Problem{
		{Path: "name", Message: "must be at least 3 characters"},
		{Path: "scores[1]", Message: "Expected number but received string"},
	})
	assert.Equal(t,
		"2 error(s)\nname: must be at least 3 characters\nscores[1]: Expected number but received string",
		err.Error())
}

func TestValidationError_SingleProblem(t *testing.T) {
	err := NewValidationError([]Problem{{Path: "age", Message: "is required"}})
	assert.Equal(t, "1 error(s)\nage: is required", err.Error())
}
