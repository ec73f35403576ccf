package task

import "github.com/ygrebnov/task/pool"

// Executor runs a callback off the calling goroutine. It is the collaborator
// the *Async subscription variants and ChainAsync hand work to; this package
// never starts its own background pool beyond GlobalTimer.
type Executor interface {
	Submit(fn func())
}

// asyncWorker is a reusable handle pool.Pool recycles between Submit calls.
// It carries no state of its own: its only job is to give poolExecutor
// something to Get/Put so the pool abstraction is actually exercised instead
// of Submit just spawning bare goroutines.
type asyncWorker struct{}

func (w *asyncWorker) execute(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// poolExecutor backs Executor with a pool.Pool, mirroring how the dispatch
// loop this package's pool subpackage was originally built for borrows and
// returns a worker around every unit of work.
type poolExecutor struct {
	pool pool.Pool
}

// NewDefaultExecutor returns an Executor backed by a dynamically-sized pool
// that grows and shrinks via sync.Pool.
func NewDefaultExecutor() Executor {
	return &poolExecutor{pool: pool.NewDynamic(func() interface{} { return &asyncWorker{} })}
}

// NewFixedExecutor returns an Executor backed by a pool capped at capacity
// concurrently-borrowed workers.
func NewFixedExecutor(capacity uint) Executor {
	return &poolExecutor{pool: pool.NewFixed(capacity, func() interface{} { return &asyncWorker{} })}
}

func (e *poolExecutor) Submit(fn func()) {
	go func() {
		w := e.pool.Get().(*asyncWorker)
		defer e.pool.Put(w)
		w.execute(fn)
	}()
}
