// Package optional provides a field wrapper for partial updates.
// A Value distinguishes "leave this field untouched" from "set this field",
// which a nil pointer or a zero value cannot express on its own.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds an optional value of type T.
// The zero Value is absent.
type Value[T any] struct {
	value T
	set   bool
}

// Of returns a present Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// None returns an absent Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// IsSet reports whether the value is present.
func (o Value[T]) IsSet() bool {
	return o.set
}

// Get returns the held value and whether it is present.
func (o Value[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the held value, or fallback when absent.
func (o Value[T]) OrElse(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Apply writes the held value into dst when present and reports whether it did.
func (o Value[T]) Apply(dst *T) bool {
	if !o.set {
		return false
	}
	*dst = o.value
	return true
}

// UnmarshalJSON marks the value present unless the JSON literal is null.
// An absent key never reaches UnmarshalJSON, so it stays absent as well.
func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Value[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Of(v)
	return nil
}

// MarshalJSON encodes an absent value as null.
func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Map converts a present Value[T] to Value[U] with fn; absent stays absent.
// fn may fail, in which case the error is returned.
func Map[T, U any](o Value[T], fn func(T) (U, error)) (Value[U], error) {
	if !o.set {
		return None[U](), nil
	}
	u, err := fn(o.value)
	if err != nil {
		return None[U](), err
	}
	return Of(u), nil
}
