package model

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch value for an optional attribute. A zero Nullable leaves
// the attribute untouched; a Nullable with Set and a nil Value clears it.
// When decoded from JSON, Set is true whenever the key is present, so an
// explicit null clears while an absent key keeps the old value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable that assigns v.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Cleared returns a Nullable that removes the attribute.
func Cleared[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n Nullable[T]) applyTo(dst **T) {
	if !n.Set {
		return
	}
	if n.Value == nil {
		*dst = nil
		return
	}
	v := *n.Value
	*dst = &v
}
