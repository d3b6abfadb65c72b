package builtin

import (
	"time"

	"github.com/goccy/go-json"

	executor "github.com/flowexec/executor"
)

// CacheBackend is the storage contract CachePlugin drives, generalizing
// internal/plugin/builtin/cache.go's CacheBackend (typed over
// *types.ChatResponse) to opaque bytes so any Return type can ride over
// either of the two concrete backends in this package.
type CacheBackend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// CacheKeyFunc derives a cache key from the call's parameters.
type CacheKeyFunc[Params any] func(Params) (string, error)

// CachePlugin is registered on the exec hook. Its OnExec always returns
// a replacement task rather than a plain value: on a cache hit the
// replacement returns the decoded value without calling the original
// task; on a miss it calls the original task and stores the result
// before returning it. Folding the store into the replacement (instead
// of a separate onSuccess hook) keeps a miss and a hit symmetric under
// the lifecycle's onExec three-way dispatch.
type CachePlugin[Params, Return any] struct {
	Backend CacheBackend
	TTL     time.Duration
	KeyFunc CacheKeyFunc[Params]
}

// NewCachePlugin builds a CachePlugin over backend with the given TTL
// and key derivation function.
func NewCachePlugin[Params, Return any](backend CacheBackend, ttl time.Duration, keyFunc CacheKeyFunc[Params]) *CachePlugin[Params, Return] {
	return &CachePlugin[Params, Return]{Backend: backend, TTL: ttl, KeyFunc: keyFunc}
}

func (p *CachePlugin[Params, Return]) PluginName() string { return "cache" }
func (p *CachePlugin[Params, Return]) OnlyOne() bool       { return true }

func (p *CachePlugin[Params, Return]) OnExec(ctx *executor.ExecutionContext[Params, Return], task executor.Task[Params, Return]) (any, error) {
	key, err := p.KeyFunc(ctx.Parameters())
	if err != nil {
		return nil, err
	}

	replacement := executor.Task[Params, Return](func(ctx *executor.ExecutionContext[Params, Return]) (Return, error) {
		var zero Return
		if data, ok, err := p.Backend.Get(key); err == nil && ok {
			var v Return
			if err := json.Unmarshal(data, &v); err == nil {
				ctx.Runtimes(executor.HookRuntimesPatch{Extra: map[string]any{"builtin.cache.hit": true}})
				return v, nil
			}
		}

		v, err := task(ctx)
		if err != nil {
			return zero, err
		}
		if data, err := json.Marshal(v); err == nil {
			_ = p.Backend.Set(key, data, p.TTL)
		}
		return v, nil
	})

	return replacement, nil
}
