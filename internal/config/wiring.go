package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	executor "github.com/flowexec/executor"
	"github.com/flowexec/executor/builtin"
)

// NewRetryPlugin builds a RetryPlugin seeded from m's current Retry
// defaults and keeps MaxRetries/RetryDelay current on every reload —
// the piece that actually drives a request through the hot-reloaded
// config, rather than leaving ExecutorDefaults as a value nothing reads.
func NewRetryPlugin[Params, Return any](m *Manager, name string) *executor.RetryPlugin[Params, Return] {
	cfg := m.Get().Retry
	plugin := executor.NewRetryPlugin[Params, Return](name, cfg.MaxRetries, cfg.RetryDelay)
	m.OnChange(func(d *ExecutorDefaults) {
		plugin.MaxRetries = d.Retry.MaxRetries
		plugin.RetryDelay = d.Retry.RetryDelay
	})
	return plugin
}

// ApplyAbortDefaults seeds plugin's DefaultTimeout from m's current
// Abort defaults and keeps it current on every reload. Extract/Inject
// still come from the caller, since those depend on the concrete Params
// type in play.
func ApplyAbortDefaults[Params, Return any](m *Manager, plugin *executor.AbortPlugin[Params, Return]) {
	plugin.DefaultTimeout = m.Get().Abort.DefaultTimeout
	m.OnChange(func(d *ExecutorDefaults) {
		plugin.DefaultTimeout = d.Abort.DefaultTimeout
	})
}

// NewRateLimitPlugin builds a RateLimitPlugin bucketed by key, seeded
// from m's current RateLimit defaults, and keeps its rate live-updated
// (including buckets already in use) on every reload.
func NewRateLimitPlugin[Params, Return any](m *Manager, key builtin.KeyFunc[Params]) *builtin.RateLimitPlugin[Params, Return] {
	cfg := m.Get().RateLimit
	plugin := builtin.NewRateLimitPlugin[Params, Return](cfg.RequestsPerSecond, cfg.Burst, key)
	m.OnChange(func(d *ExecutorDefaults) {
		plugin.SetLimit(d.RateLimit.RequestsPerSecond, d.RateLimit.Burst)
	})
	return plugin
}

// NewCachePlugin builds a CachePlugin from m's current Cache defaults,
// choosing the memory or redis backend per Cache.Backend, and keeps TTL
// live-updated on every reload. Switching backends at runtime is not
// supported — only the TTL of the backend chosen at construction time
// follows reloads.
func NewCachePlugin[Params, Return any](m *Manager, keyFunc builtin.CacheKeyFunc[Params]) (*builtin.CachePlugin[Params, Return], error) {
	cfg := m.Get().Cache

	var backend builtin.CacheBackend
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("config: connect redis cache backend %s: %w", cfg.RedisAddr, err)
		}
		backend = builtin.NewRedisCacheBackend(client, context.Background())
	default:
		backend = builtin.NewMemoryCacheBackend(cfg.TTL, cfg.TTL)
	}

	plugin := builtin.NewCachePlugin[Params, Return](backend, cfg.TTL, keyFunc)
	m.OnChange(func(d *ExecutorDefaults) {
		plugin.TTL = d.Cache.TTL
	})
	return plugin, nil
}
