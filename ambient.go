package task

import (
	"sync"

	"github.com/ygrebnov/task/metrics"
)

// ambientMu guards the package-level Executor and Provider every Task and
// GlobalTimer fall back to. Configure is the only writer; it is meant to run
// once during process initialization.
var (
	ambientMu       sync.RWMutex
	ambientExecutor Executor
	ambientMetrics  metrics.Provider
)

func init() {
	setAmbient(defaultConfig())
}

func setAmbient(cfg Config) {
	ambientMu.Lock()
	defer ambientMu.Unlock()
	if cfg.MaxExecutorWorkers == 0 {
		ambientExecutor = NewDefaultExecutor()
	} else {
		ambientExecutor = NewFixedExecutor(cfg.MaxExecutorWorkers)
	}
	ambientMetrics = cfg.Metrics
}

// DefaultExecutor returns the package-level Executor Configure last built,
// or a dynamically-sized one if Configure was never called.
func DefaultExecutor() Executor {
	ambientMu.RLock()
	defer ambientMu.RUnlock()
	return ambientExecutor
}

// Metrics returns the package-level metrics Provider Configure last
// installed, or a no-op Provider if Configure was never called.
func Metrics() metrics.Provider {
	ambientMu.RLock()
	defer ambientMu.RUnlock()
	return ambientMetrics
}
