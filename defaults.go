package task

import "github.com/ygrebnov/task/metrics"

// defaultConfig centralizes default values for Config. Applied as the base
// Configure builds on top of before any Option runs.
func defaultConfig() Config {
	return Config{
		MaxExecutorWorkers: 0, // dynamic pool
		Metrics:            metrics.NewNoopProvider(),
	}
}

// validateConfig performs lightweight invariant checks.
func validateConfig(cfg *Config) error {
	if cfg.Metrics == nil {
		return ErrInvalidArgument
	}
	return nil
}
