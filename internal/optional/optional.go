// Package optional distinguishes a JSON field that was omitted from one
// that was sent as null or with a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a decoded field. The zero Value means the field was omitted.
//
// Because encoding/json never calls UnmarshalJSON for a key that is absent,
// Set stays false unless the key appeared in the payload.
type Value[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a Value that is set to v.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: v}
}

// Null returns a Value that was explicitly sent as null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (v Value[T]) Present() bool {
	return v.Set && !v.Null
}

// Or returns the held value when present, otherwise fallback.
func (v Value[T]) Or(fallback T) T {
	if v.Present() {
		return v.Value
	}
	return fallback
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		v.Null = true
		var zero T
		v.Value = zero
		return nil
	}
	v.Null = false
	return json.Unmarshal(data, &v.Value)
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}
