package finsim

import (
	"encoding/json"
	"fmt"
)

// Option holds a value that may be absent. The zero value is None.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] { return Option[T]{value: v, ok: true} }

func None[T any]() Option[T] { return Option[T]{} }

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) { return o.value, o.ok }

func (o Option[T]) IsSome() bool { return o.ok }

func (o Option[T]) IsNone() bool { return !o.ok }

// OrElse returns the value, or d when absent.
func (o Option[T]) OrElse(d T) T {
	if o.ok {
		return o.value
	}
	return d
}

// Format prints the value with format, or "n/a".
func (o Option[T]) Format(format string) string {
	if !o.ok {
		return "n/a"
	}
	return fmt.Sprintf(format, o.value)
}

func (o Option[T]) String() string { return o.Format("%v") }

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Option[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
