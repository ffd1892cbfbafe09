package models

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Nullable distinguishes a missing JSON key from an explicit null and from a value.
type Nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// NewNullable returns a Nullable holding v.
func NewNullable[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: v}
}

// Null returns a Nullable that was explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true, Null: true}
}

// UnmarshalJSON is only invoked when the key is present in the object.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		var zero T
		n.Null = true
		n.Value = zero
		return nil
	}
	n.Null = false
	return json.Unmarshal(data, &n.Value)
}

// MarshalJSON writes null for unset or null values.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Set || n.Null {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil when the field is unset or null.
func (n Nullable[T]) Ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// SQLValue returns the value to bind for a statement parameter.
func (n Nullable[T]) SQLValue() any {
	if n.Null {
		return nil
	}
	return n.Value
}
