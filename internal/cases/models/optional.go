package models

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes a field that was absent from the message (leave unchanged)
// from one explicitly set to null (clear) or to a value (override).
//
// encoding/json only calls UnmarshalJSON when the key is present, so the zero
// Optional means "unspecified". Use the `omitzero` tag to keep absent fields
// absent on the way out.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// IsZero reports whether the field was unspecified.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// IsNull reports whether the field was explicitly cleared.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.Value == nil
}

// Apply writes the override into dst when the field was specified.
func (o Optional[T]) Apply(dst **T) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
