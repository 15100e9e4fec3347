package parse

import (
	"context"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/conduit-lang/remodel/schema"
)

var digitString = regexp.MustCompile(`^-?[0-9]+$`)

// decodeScalar deserializes one non-nil value according to the field's
// declared kind. The boolean reports whether decoding succeeded; on
// failure a hard problem has been recorded at path. Declared values
// require an exact runtime type match: a numeric string is never
// accepted where a number is declared.
func (e *Engine) decodeScalar(ctx context.Context, f *schema.Field, value any, path string, rec *recorder) (any, bool, error) {
	if f.Deserialize != nil {
		v, err := f.Deserialize(ctx, value)
		if err != nil {
			rec.hardProblem(path, err.Error())
			return nil, false, nil
		}
		return v, true, nil
	}

	switch f.Kind {
	case schema.KindString:
		s, ok := value.(string)
		if !ok {
			rec.hardProblem(path, expected("string", value))
			return nil, false, nil
		}
		return s, true, nil

	case schema.KindNumber:
		if !schema.IsNumber(value) {
			rec.hardProblem(path, expected("number", value))
			return nil, false, nil
		}
		return value, true, nil

	case schema.KindBool:
		b, ok := value.(bool)
		if !ok {
			rec.hardProblem(path, expected("boolean", value))
			return nil, false, nil
		}
		return b, true, nil

	case schema.KindTime:
		return decodeTime(value, path, rec)

	case schema.KindBigInt:
		return decodeBigInt(value, path, rec)

	case schema.KindDeclared:
		return e.decodeDeclared(ctx, f, value, path, rec)

	default:
		return value, true, nil
	}
}

// decodeTime accepts a native time.Time or an ISO-8601 string.
func decodeTime(value any, path string, rec *recorder) (any, bool, error) {
	switch v := value.(type) {
	case time.Time:
		return v, true, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			rec.hardProblem(path, fmt.Sprintf("Invalid ISO-8601 date string %q", v))
			return nil, false, nil
		}
		return t, true, nil
	default:
		rec.hardProblem(path, expected("date", value))
		return nil, false, nil
	}
}

// decodeBigInt accepts a native *big.Int, a Go integer, or a pure digit
// string with an optional leading minus.
func decodeBigInt(value any, path string, rec *recorder) (any, bool, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), true, nil
	case int:
		return big.NewInt(int64(v)), true, nil
	case int64:
		return big.NewInt(v), true, nil
	case string:
		if !digitString.MatchString(v) {
			rec.hardProblem(path, fmt.Sprintf("Invalid bigint string %q", v))
			return nil, false, nil
		}
		n, _ := new(big.Int).SetString(v, 10)
		return n, true, nil
	default:
		rec.hardProblem(path, expected("bigint", value))
		return nil, false, nil
	}
}

// decodeDeclared recurses into a nested declared type, either through
// the field's lazy thunk or, for discriminated fields, by resolving the
// concrete type name from the value's discriminator key.
func (e *Engine) decodeDeclared(ctx context.Context, f *schema.Field, value any, path string, rec *recorder) (any, bool, error) {
	var target *schema.Type

	if f.Discriminator != "" {
		m, ok := value.(map[string]any)
		if !ok {
			rec.hardProblem(path, expected("object", value))
			return nil, false, nil
		}
		name, ok := m[f.Discriminator].(string)
		if !ok {
			rec.hardProblem(path, fmt.Sprintf("Missing %q discriminator property", f.Discriminator))
			return nil, false, nil
		}
		target, ok = e.registry.LookupByName(name)
		if !ok {
			rec.hardProblem(path, fmt.Sprintf("Unknown %s discriminator value %q", f.Discriminator, name))
			return nil, false, nil
		}
	} else {
		target = f.Elem()
		if target == nil {
			return nil, false, fmt.Errorf("field %s: type thunk resolved to nil", path)
		}
	}

	before := rec.hard
	nested, err := e.parseType(ctx, target, value, path, rec)
	if err != nil {
		return nil, false, err
	}
	return nested, rec.hard == before, nil
}

func expected(kind string, value any) string {
	return fmt.Sprintf("Expected %s but received %s", kind, schema.PlainKind(value))
}
