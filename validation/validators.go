package validation

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"unicode/utf8"

	"github.com/conduit-lang/remodel/schema"
)

// soft wraps a message into a single whole-value problem; the engine
// rewrites the empty path to the field's own path.
func soft(message string) []schema.Problem {
	return []schema.Problem{{Message: message}}
}

// MinLength validates a minimum string length in runes.
func MinLength(n int) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		s, ok := value.(string)
		if !ok {
			return soft("expected string value"), nil
		}
		if utf8.RuneCountInString(s) < n {
			return soft(fmt.Sprintf("must be at least %d characters", n)), nil
		}
		return nil, nil
	}
}

// MaxLength validates a maximum string length in runes.
func MaxLength(n int) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		s, ok := value.(string)
		if !ok {
			return soft("expected string value"), nil
		}
		if utf8.RuneCountInString(s) > n {
			return soft(fmt.Sprintf("must be at most %d characters", n)), nil
		}
		return nil, nil
	}
}

// NonEmpty validates that a string or array value is not empty.
func NonEmpty() schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		switch v := value.(type) {
		case string:
			if v == "" {
				return soft("must not be empty"), nil
			}
		default:
			if elems, ok := schema.AsSlice(value); ok && len(elems) == 0 {
				return soft("must not be empty"), nil
			}
		}
		return nil, nil
	}
}

// Pattern validates a string value against a compiled regex.
func Pattern(re *regexp.Regexp) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		s, ok := value.(string)
		if !ok {
			return soft("pattern validation requires string value"), nil
		}
		if !re.MatchString(s) {
			return soft(fmt.Sprintf("must match pattern %s", re.String())), nil
		}
		return nil, nil
	}
}

// Min validates a minimum numeric value.
func Min(min float64) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		f, ok := toFloat64(value)
		if !ok {
			return soft("expected numeric value"), nil
		}
		if f < min {
			return soft(fmt.Sprintf("must be at least %v", min)), nil
		}
		return nil, nil
	}
}

// Max validates a maximum numeric value.
func Max(max float64) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		f, ok := toFloat64(value)
		if !ok {
			return soft("expected numeric value"), nil
		}
		if f > max {
			return soft(fmt.Sprintf("must be at most %v", max)), nil
		}
		return nil, nil
	}
}

// OneOf validates membership in a fixed set of allowed values.
func OneOf(allowed ...any) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		for _, a := range allowed {
			if reflect.DeepEqual(value, a) {
				return nil, nil
			}
		}
		return soft(fmt.Sprintf("must be one of %v", allowed)), nil
	}
}

// MaxItems validates a maximum array length; intended as an
// ArrayValidator.
func MaxItems(n int) schema.FieldValidator {
	return func(ctx context.Context, value any) ([]schema.Problem, error) {
		elems, ok := schema.AsSlice(value)
		if !ok {
			return soft("expected array value"), nil
		}
		if len(elems) > n {
			return soft(fmt.Sprintf("must have at most %d items", n)), nil
		}
		return nil, nil
	}
}

// toFloat64 coerces Go numeric values for constraint comparison.
func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	default:
		return 0, false
	}
}
