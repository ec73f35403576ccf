package task

import (
	"sync"
	"sync/atomic"
)

// AssignOnce is a write-once slot: the first Set or SetFunc call wins, every
// later one is rejected, and Get observes either nothing or the one
// published value. The fast path is lock-free once a value has landed.
type AssignOnce[T any] struct {
	mu  sync.Mutex
	val T
	set atomic.Bool
}

// NewAssignOnce returns an empty AssignOnce.
func NewAssignOnce[T any]() *AssignOnce[T] {
	return &AssignOnce[T]{}
}

// Set publishes v if the slot is still empty. It reports whether this call
// won the race.
func (a *AssignOnce[T]) Set(v T) bool {
	if a.set.Load() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.set.Load() {
		return false
	}
	a.val = v
	a.set.Store(true)
	return true
}

// SetFunc publishes supplier()'s result if the slot is still empty, calling
// supplier at most once. It reports whether this call won the race.
func (a *AssignOnce[T]) SetFunc(supplier func() T) bool {
	if a.set.Load() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.set.Load() {
		return false
	}
	a.val = supplier()
	a.set.Store(true)
	return true
}

// Get returns the published value and true, or the zero value and false if
// nothing has been published yet.
func (a *AssignOnce[T]) Get() (T, bool) {
	if a.set.Load() {
		return a.val, true
	}
	var zero T
	return zero, false
}

// IsSet reports whether a value has been published.
func (a *AssignOnce[T]) IsSet() bool {
	return a.set.Load()
}
