package task

import (
	"sync"
	"sync/atomic"
)

// Lazy defers running a supplier until the first Get, then memoizes the
// result. The ready flag is the publication fence: once set, Get never
// touches the mutex again.
type Lazy[T any] struct {
	mu       sync.Mutex
	supplier func() T
	value    T
	ready    atomic.Bool
}

// NewLazy returns a Lazy that will call supplier exactly once, on the first
// Get.
func NewLazy[T any](supplier func() T) *Lazy[T] {
	return &Lazy[T]{supplier: supplier}
}

// Get returns the memoized value, computing it on the first call.
func (l *Lazy[T]) Get() T {
	if l.ready.Load() {
		return l.value
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.supplier != nil {
		l.value = l.supplier()
		l.supplier = nil
		l.ready.Store(true)
	}
	return l.value
}

// MapLazy derives a new Lazy[U] whose supplier runs f against base's
// memoized value. base is only ever forced once, the first time the
// returned Lazy is forced. A method cannot add a type parameter, so this is
// a package function rather than Lazy[T].Map.
func MapLazy[T, U any](base *Lazy[T], f func(T) U) *Lazy[U] {
	return NewLazy(func() U { return f(base.Get()) })
}

// CloseableLazy is a Lazy paired with a close action that only runs if the
// value was actually created.
type CloseableLazy[T any] struct {
	inner   *Lazy[T]
	closeFn func(T)
	created atomic.Bool
	closed  atomic.Bool
}

// NewCloseableLazy returns a CloseableLazy that calls closeFn with the
// created value on Close, but only if Get was ever called.
func NewCloseableLazy[T any](supplier func() T, closeFn func(T)) *CloseableLazy[T] {
	cl := &CloseableLazy[T]{closeFn: closeFn}
	cl.inner = NewLazy(func() T {
		cl.created.Store(true)
		return supplier()
	})
	return cl
}

// Get returns the memoized value, or ErrIllegalState if Close already ran.
func (c *CloseableLazy[T]) Get() (T, error) {
	if c.closed.Load() {
		var zero T
		return zero, ErrIllegalState
	}
	return c.inner.Get(), nil
}

// Close runs the close action exactly once, and only if the value was
// created. A CloseableLazy never forced is a no-op to close.
func (c *CloseableLazy[T]) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.created.Load() {
		c.closeFn(c.inner.Get())
	}
}

// InlineLazy defers even the choice of supplier to the first Get call,
// instead of binding one at construction. Every caller that races to force
// it must agree on the supplier actually used.
type InlineLazy[T any] struct {
	mu       sync.Mutex
	value    T
	resolved atomic.Bool
}

// NewInlineLazy returns an unresolved InlineLazy.
func NewInlineLazy[T any]() *InlineLazy[T] {
	return &InlineLazy[T]{}
}

// Get resolves the slot using supplier on the first call from any goroutine;
// later calls, with any supplier, return the memoized value.
func (l *InlineLazy[T]) Get(supplier func() T) T {
	if l.resolved.Load() {
		return l.value
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.resolved.Load() {
		l.value = supplier()
		l.resolved.Store(true)
	}
	return l.value
}
