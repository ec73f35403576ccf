// Package pool implements the reusable-value abstraction task's Executor
// borrows from: a value pool, not a thread pool. Executor.Submit gets a
// value to run a callback under and returns it afterward, instead of
// unconditionally spawning a fresh goroutine state.
package pool

// Pool hands out and reclaims reusable values.
type Pool interface {
	// Get returns a value from the pool, creating one if none is idle.
	Get() interface{}

	// Put returns a value to the pool for reuse.
	Put(interface{})
}
