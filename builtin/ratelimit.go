package builtin

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	executor "github.com/flowexec/executor"
)

// ErrRateLimited is the error surfaced when a call is rejected by
// RateLimitPlugin. Wrap with executor.Wrap to route on a stable ID.
var ErrRateLimited = fmt.Errorf("builtin: rate limit exceeded")

// KeyFunc extracts the rate-limit bucket key (tenant id, API key, IP...)
// from the call's parameters.
type KeyFunc[Params any] func(Params) string

// RateLimitPlugin is a per-key token-bucket limiter registered on
// beforeHooks, generalizing internal/auth/ratelimiter.go's
// map[string]*rate.Limiter from an HTTP middleware to an arbitrary
// executor Params type.
type RateLimitPlugin[Params, Return any] struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	rps   rate.Limit
	burst int
	key   KeyFunc[Params]
}

// NewRateLimitPlugin builds a limiter allowing requestsPerSecond with
// burst capacity burst, bucketed by key.
func NewRateLimitPlugin[Params, Return any](requestsPerSecond float64, burst int, key KeyFunc[Params]) *RateLimitPlugin[Params, Return] {
	if key == nil {
		key = func(Params) string { return "" }
	}
	return &RateLimitPlugin[Params, Return]{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		key:      key,
	}
}

func (p *RateLimitPlugin[Params, Return]) PluginName() string { return "rate-limit" }

// OnBefore rejects the call with ErrRateLimited when the caller's bucket
// has no tokens left; a rejection propagates as the exec's error,
// short-circuiting execHook/the task/afterHooks entirely.
func (p *RateLimitPlugin[Params, Return]) OnBefore(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	key := p.key(ctx.Parameters())
	if !p.limiterFor(key).Allow() {
		return nil, fmt.Errorf("%w: key=%q", ErrRateLimited, key)
	}
	return nil, nil
}

func (p *RateLimitPlugin[Params, Return]) limiterFor(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[key]
	if !ok {
		l = rate.NewLimiter(p.rps, p.burst)
		p.limiters[key] = l
	}
	return l
}

// SetLimit replaces the requests-per-second/burst rate applied to every
// bucket, including ones already created — the hook a hot-reloading
// config source uses to push new limits without dropping in-flight
// buckets.
func (p *RateLimitPlugin[Params, Return]) SetLimit(requestsPerSecond float64, burst int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rps = rate.Limit(requestsPerSecond)
	p.burst = burst
	for _, l := range p.limiters {
		l.SetLimit(p.rps)
		l.SetBurst(p.burst)
	}
}
