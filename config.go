package task

import "github.com/ygrebnov/task/metrics"

// Config controls the package-level ambient Executor that DefaultExecutor
// returns, and the metrics Provider GlobalTimer and every Task's termination
// protocol report into. The *Async subscription variants and ChainAsync do
// not fall back to the ambient Executor: each runs callbacks on the Executor
// passed to it.
type Config struct {
	// MaxExecutorWorkers caps DefaultExecutor's concurrently-borrowed
	// worker count. Zero (default) means a dynamically-sized pool.
	MaxExecutorWorkers uint

	// Metrics receives task-completion and scheduling instrumentation.
	// Default: a no-op provider.
	Metrics metrics.Provider
}
