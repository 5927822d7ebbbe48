// Package observe provides observable values and two-way bindings between them.
package observe

import (
	"slices"
	"sync"
)

// Change describes a field update.
type Change[T any] struct {
	Name string
	Old  T
	New  T
}

// Handle identifies one subscription.
type Handle uint64

// Observable is a value that notifies subscribers when it changes.
type Observable[T any] interface {
	Get() T
	Set(v T) bool
	Observe(fn func(Change[T])) Handle
	Unobserve(h Handle)
}

type observer[T any] struct {
	id Handle
	fn func(Change[T])
}

// Field is an observable value. Set notifies observers in subscription order
// only when the value actually changes. Observers run synchronously on the
// goroutine calling Set, after the field lock is released.
type Field[T any] struct {
	name  string
	equal func(a, b T) bool

	mu        sync.Mutex
	value     T
	next      Handle
	observers []observer[T]
}

// NewField creates a field compared with ==.
func NewField[T comparable](name string, v T) *Field[T] {
	return NewFieldFunc(name, v, func(a, b T) bool { return a == b })
}

// NewSliceField creates a slice field compared element-wise.
func NewSliceField[E comparable](name string, v []E) *Field[[]E] {
	return NewFieldFunc(name, v, slices.Equal[[]E])
}

// NewFieldFunc creates a field with a custom equality.
func NewFieldFunc[T any](name string, v T, equal func(a, b T) bool) *Field[T] {
	return &Field[T]{name: name, value: v, equal: equal}
}

// Name returns the field name.
func (f *Field[T]) Name() string { return f.name }

// Get returns the current value.
func (f *Field[T]) Get() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Set stores v and notifies observers if it differs from the current value.
// It reports whether a change happened.
func (f *Field[T]) Set(v T) bool {
	f.mu.Lock()
	if f.equal(f.value, v) {
		f.mu.Unlock()
		return false
	}
	old := f.value
	f.value = v
	obs := slices.Clone(f.observers)
	f.mu.Unlock()

	ch := Change[T]{Name: f.name, Old: old, New: v}
	for _, o := range obs {
		if f.subscribed(o.id) {
			o.fn(ch)
		}
	}
	return true
}

// Observe subscribes fn to changes.
func (f *Field[T]) Observe(fn func(Change[T])) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.observers = append(f.observers, observer[T]{id: f.next, fn: fn})
	return f.next
}

// Unobserve removes a subscription. Unknown handles are ignored.
func (f *Field[T]) Unobserve(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = slices.DeleteFunc(f.observers, func(o observer[T]) bool { return o.id == h })
}

// Observers returns the number of live subscriptions.
func (f *Field[T]) Observers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

func (f *Field[T]) subscribed(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.ContainsFunc(f.observers, func(o observer[T]) bool { return o.id == h })
}
