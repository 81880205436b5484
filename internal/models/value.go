package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a record field after coercion. It is either a finite number or an
// opaque passthrough of whatever the data source supplied. Opaque values never
// take part in arithmetic.
type Value struct {
	num     float64
	raw     any
	numeric bool
}

// Number wraps a numeric field.
func Number(f float64) Value { return Value{num: f, raw: f, numeric: true} }

// Opaque wraps a field that is not a number.
func Opaque(v any) Value { return Value{raw: v} }

// Float returns the numeric value and whether the field is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.numeric }

// IsNumeric reports whether the field was coerced to a number.
func (v Value) IsNumeric() bool { return v.numeric }

// Raw returns the value as supplied by the data source.
func (v Value) Raw() any { return v.raw }

func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	if v.raw == nil {
		return ""
	}
	return fmt.Sprint(v.raw)
}

// Coerce decides once whether a raw field is numeric. Go numeric kinds and
// strings that parse as a finite float (surrounding whitespace allowed) become
// numbers. Everything else, including NaN, infinities, booleans and nil, is
// kept opaque.
func Coerce(raw any) Value {
	var f float64
	switch x := raw.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return Opaque(raw)
		}
		f = parsed
	case string:
		return coerceString(raw, x)
	case []byte:
		return coerceString(raw, string(x))
	default:
		return Opaque(raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Opaque(raw)
	}
	return Value{num: f, raw: raw, numeric: true}
}

func coerceString(raw any, s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Opaque(raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Opaque(raw)
	}
	return Value{num: f, raw: raw, numeric: true}
}
