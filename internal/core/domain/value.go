package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies the scalar type carried by a Value.
type ValueKind int

const (
	// KindNull is the zero Value, carrying no data.
	KindNull ValueKind = iota

	// KindString carries a string.
	KindString

	// KindNumber carries a float64.
	KindNumber

	// KindBool carries a bool.
	KindBool
)

// Value is a tagged scalar variant for cell contents. Destination
// schemas are not known ahead of fetch, so records carry loosely
// typed scalars rather than static structs.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// String returns a string Value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// FromAny converts a decoded JSON scalar into a Value.
// Unsupported types (objects, arrays) are stringified.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// Kind returns the scalar type tag.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsNull reports whether the Value carries no data.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsString returns the string content, or "" for other kinds.
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.str
	}
	return ""
}

// AsNumber returns the numeric content, or 0 for other kinds.
func (v Value) AsNumber() float64 {
	if v.kind == KindNumber {
		return v.num
	}
	return 0
}

// AsBool returns the boolean content, or false for other kinds.
func (v Value) AsBool() bool {
	if v.kind == KindBool {
		return v.b
	}
	return false
}

// Any returns the underlying scalar as an untyped value.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON encodes the Value as its underlying JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar into the Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "null"
	}
}

// Record is a normalised row: a flat mapping from destination column
// name to scalar value. Every record contains an "id" field.
type Record map[string]Value

// ID returns the record's identifier as a string, or "" if absent.
func (r Record) ID() string {
	v, ok := r["id"]
	if !ok || v.IsNull() {
		return ""
	}
	return v.String()
}
