// Package atomix provides a small generic atomic cell, grounded on
// nabbar-golib/atomic but trimmed to the single load/store/swap surface the
// communicator needs for its read/write/handshake error latches, which
// plain sync/atomic.Int64/Bool cannot hold directly.
package atomix

import "sync/atomic"

// Value is a type-safe wrapper around atomic.Value.
type Value[T any] struct {
	v atomic.Value
}

type box[T any] struct {
	val T
}

// New returns a Value holding the zero value of T.
func New[T any]() *Value[T] {
	return &Value[T]{}
}

// Load returns the current value, or the zero value of T if never stored.
func (o *Value[T]) Load() T {
	if b, ok := o.v.Load().(box[T]); ok {
		return b.val
	}
	var zero T
	return zero
}

// Store sets the current value.
func (o *Value[T]) Store(val T) {
	o.v.Store(box[T]{val: val})
}

// Swap atomically stores val and returns the previous value.
func (o *Value[T]) Swap(val T) T {
	old := o.v.Swap(box[T]{val: val})
	if b, ok := old.(box[T]); ok {
		return b.val
	}
	var zero T
	return zero
}

// CompareAndSwap reports whether the stored value equaled old, and if so
// replaces it with new. T must be comparable.
func CompareAndSwap[T comparable](o *Value[T], old, new T) bool {
	for {
		cur := o.v.Load()
		b, ok := cur.(box[T])
		var curVal T
		if ok {
			curVal = b.val
		}
		if curVal != old {
			return false
		}
		if ok {
			if o.v.CompareAndSwap(cur, box[T]{val: new}) {
				return true
			}
		} else if o.v.CompareAndSwap(nil, box[T]{val: new}) {
			// never stored: atomic.Value.CompareAndSwap accepts nil as old.
			return true
		}
	}
}
