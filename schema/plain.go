package schema

import (
	"math/big"
	"reflect"
	"time"
)

// AsSlice normalizes an array-shaped plain value into []any. It accepts
// any Go slice or array, never a string or a map.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsNumber reports whether v is a Go numeric value. Numeric strings and
// booleans are never numbers.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// PlainKind names the runtime kind of a plain value for error messages.
func PlainKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case time.Time:
		return "date"
	case *big.Int:
		return "bigint"
	case *Instance:
		return "object"
	case map[string]any:
		return "object"
	}
	if IsNumber(v) {
		return "number"
	}
	if _, ok := AsSlice(v); ok {
		return "array"
	}
	return reflect.TypeOf(v).String()
}
