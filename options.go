package task

import (
	"fmt"

	"github.com/ygrebnov/task/metrics"
)

// Option configures the package-level ambient Executor and metrics Provider.
// Use Configure(opts...) to apply them.
type Option func(*Config)

// WithFixedExecutor selects a fixed-capacity default Executor (capacity must
// be > 0).
func WithFixedExecutor(capacity uint) Option {
	return func(c *Config) {
		if capacity == 0 {
			panic("WithFixedExecutor requires capacity > 0")
		}
		c.MaxExecutorWorkers = capacity
	}
}

// WithDynamicExecutor selects a dynamically-sized default Executor — the
// default if no executor option is given.
func WithDynamicExecutor() Option {
	return func(c *Config) { c.MaxExecutorWorkers = 0 }
}

// WithMetrics installs p as the Provider task completions and GlobalTimer
// scheduling activity are recorded against.
func WithMetrics(p metrics.Provider) Option {
	return func(c *Config) { c.Metrics = p }
}

// Configure rebuilds the package-level ambient Executor and metrics Provider
// from opts. Call it once during process initialization, before any Task is
// created; it is not safe to call concurrently with code that reads the
// ambient collaborators.
func Configure(opts ...Option) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			panic("nil task option")
		}
		opt(&cfg)
	}
	if err := validateConfig(&cfg); err != nil {
		panic(fmt.Errorf("invalid task config: %w", err))
	}
	setAmbient(cfg)
}
