// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// CommitCacheSize bounds the snapshot commit deduplication cache.
	CommitCacheSize int `koanf:"commit_cache_size"`

	// HistoryLimit caps retained snapshots per lecturer. Zero keeps all.
	HistoryLimit int `koanf:"history_limit"`

	// EvalWorkerCount sets the number of evaluation commit workers.
	EvalWorkerCount int `koanf:"eval_worker_count"`

	// EvalQueueCapacity bounds the evaluation job queue.
	EvalQueueCapacity int `koanf:"eval_queue_capacity"`

	// TopPerformersLimit is the default leaderboard size for reports.
	TopPerformersLimit int `koanf:"top_performers_limit"`

	// TrendWindowDays is the default lookback window for trend reports.
	TrendWindowDays int `koanf:"trend_window_days"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		CommitCacheSize:    10_000,
		HistoryLimit:       0,
		EvalWorkerCount:    4,
		EvalQueueCapacity:  1024,
		TopPerformersLimit: 5,
		TrendWindowDays:    180,
	}
}
