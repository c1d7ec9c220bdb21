package domain

import (
	"bytes"
	"encoding/json"
)

var jsonNull = []byte("null")

// Optional is a tri-state value decoded from JSON: the key may be absent
// (Set == false), explicitly null (Set && Null), or carry a value.
//
// encoding/json only calls UnmarshalJSON for keys that are present, which is
// what makes absence observable.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present, explicitly null Optional.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// HasValue reports whether the key was present with a non-null value.
func (o Optional[T]) HasValue() bool {
	return o.Set && !o.Null
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// NumberText keeps the text of a JSON number or string so numeric validation
// can happen in the service with a field-specific error. Non-numeric JSON
// (booleans, objects) is kept verbatim and fails that validation.
type NumberText string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumberText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = NumberText(s)
		return nil
	}
	*n = NumberText(trimmed)
	return nil
}
