// Package config holds the hot-reloadable ambient defaults an executor
// host applies when constructing a LifecycleExecutor and its builtin
// plugins — retry/abort tuning and the builtin plugins' own settings.
// wiring.go builds those plugins directly from a Manager's live
// defaults, so a reload actually reaches the executor and builtin
// packages rather than stopping at an ExecutorDefaults value nothing
// reads. The dependency runs one way: this package imports the root
// executor and builtin packages, never the reverse.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetryConfig mirrors executor.RetryPlugin's configuration.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// AbortConfig mirrors executor.AbortPlugin's pool-wide default timeout.
type AbortConfig struct {
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// RateLimitConfig configures builtin.RateLimitPlugin.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CacheConfig configures builtin.CachePlugin.
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "memory" or "redis"
	TTL       time.Duration `yaml:"ttl"`
	RedisAddr string        `yaml:"redis_addr"`
}

// ExecutorDefaults is the full set of ambient, file-backed defaults for
// an executor host. It is the generalization of the teacher's
// gateway-wide Config to the executor's narrower ambient surface.
type ExecutorDefaults struct {
	Retry     RetryConfig     `yaml:"retry"`
	Abort     AbortConfig     `yaml:"abort"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
}

// Default returns the built-in fallback values, used when no file is
// present or a key is omitted.
func Default() *ExecutorDefaults {
	return &ExecutorDefaults{
		Retry: RetryConfig{MaxRetries: 3, RetryDelay: 100 * time.Millisecond},
		Abort: AbortConfig{DefaultTimeout: 30 * time.Second},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Cache: CacheConfig{Backend: "memory", TTL: 5 * time.Minute},
	}
}

// LoadFromFile reads and parses path, layering its values over Default().
func LoadFromFile(path string) (*ExecutorDefaults, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
