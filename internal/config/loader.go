package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if STAFFKPI_CONFIG is set
//  3. env (prefix STAFFKPI_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("STAFFKPI_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: STAFFKPI_LOG_LEVEL, STAFFKPI_HISTORY_LIMIT, ...
	// Map env keys like STAFFKPI_HISTORY_LIMIT -> history_limit (flat keys).
	// Underscores are preserved to match koanf tags on the struct.
	envProvider := env.Provider("STAFFKPI_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "staffkpi_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.CommitCacheSize <= 0 {
		return fmt.Errorf("%w: commit_cache_size must be positive", ErrInvalidConfig)
	}
	if cfg.HistoryLimit < 0 {
		return fmt.Errorf("%w: history_limit must not be negative", ErrInvalidConfig)
	}
	if cfg.EvalWorkerCount <= 0 {
		return fmt.Errorf("%w: eval_worker_count must be positive", ErrInvalidConfig)
	}
	if cfg.EvalQueueCapacity <= 0 {
		return fmt.Errorf("%w: eval_queue_capacity must be positive", ErrInvalidConfig)
	}
	if cfg.TopPerformersLimit <= 0 {
		return fmt.Errorf("%w: top_performers_limit must be positive", ErrInvalidConfig)
	}
	if cfg.TrendWindowDays <= 0 {
		return fmt.Errorf("%w: trend_window_days must be positive", ErrInvalidConfig)
	}
	return nil
}
