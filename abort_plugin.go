package executor

import (
	"context"
	"errors"
	"time"
)

// AbortExtractor pulls an AbortConfig out of the current parameters.
// AbortPlugin has no default extractor: OnBefore always calls Extract,
// so it must be set.
type AbortExtractor[Params any] func(Params) AbortConfig

// SignalInjector writes the pool's per-call context back into a fresh
// Params value, the Go stand-in for "inject the pool's signal back into
// parameters.signal".
type SignalInjector[Params any] func(params Params, abortCtx context.Context) Params

const abortPluginExtraKey = "executor.abortKey"

// AbortPlugin is the lifecycle wrapper around AbortPool described in the
// spec: on before it registers (pre-empting any live entry for the same
// key) and injects the resulting context; on success it cleans up
// without firing; on error, an abort-flavored error is normalized into
// an *AbortError before the executor's own normalization sees it.
type AbortPlugin[Params, Return any] struct {
	Name           string
	Pool           *AbortPool
	DefaultTimeout time.Duration
	Extract        AbortExtractor[Params]
	Inject         SignalInjector[Params]
}

// NewAbortPlugin builds a ready-to-register AbortPlugin over pool.
func NewAbortPlugin[Params, Return any](
	name string,
	pool *AbortPool,
	defaultTimeout time.Duration,
	extract AbortExtractor[Params],
	inject SignalInjector[Params],
) *AbortPlugin[Params, Return] {
	return &AbortPlugin[Params, Return]{
		Name:           name,
		Pool:           pool,
		DefaultTimeout: defaultTimeout,
		Extract:        extract,
		Inject:         inject,
	}
}

func (a *AbortPlugin[Params, Return]) PluginName() string { return a.Name }
func (a *AbortPlugin[Params, Return]) OnlyOne() bool       { return true }

// OnBefore registers a fresh abort context for the call's key, injects
// it into parameters, and stashes the key in the context's opaque Extra
// slot so OnSuccess/OnError can find it without a side table.
func (a *AbortPlugin[Params, Return]) OnBefore(ctx *ExecutionContext[Params, Return]) (any, error) {
	cfg := a.Extract(ctx.Parameters())
	if cfg.Timeout <= 0 {
		cfg.Timeout = a.DefaultTimeout
	}

	abortCtx, key := a.Pool.Register(context.Background(), cfg)
	ctx.Runtimes(HookRuntimesPatch{Extra: map[string]any{abortPluginExtraKey: key}})

	return a.Inject(ctx.Parameters(), abortCtx), nil
}

// OnSuccess cleans up the entry without firing it.
func (a *AbortPlugin[Params, Return]) OnSuccess(ctx *ExecutionContext[Params, Return]) (any, error) {
	if key, ok := a.currentKey(ctx); ok {
		a.Pool.Cleanup(key)
	}
	return nil, nil
}

// OnError normalizes an abort-flavored failure into an *AbortError and
// always cleans up the entry, abort or not, to avoid leaking it.
func (a *AbortPlugin[Params, Return]) OnError(ctx *ExecutionContext[Params, Return]) (any, error) {
	key, ok := a.currentKey(ctx)
	if !ok {
		return nil, nil
	}
	defer a.Pool.Cleanup(key)

	cause := ctx.Error()
	if !isAbortError(cause) {
		return nil, nil
	}

	var ae *AbortError
	if errors.As(cause, &ae) {
		return ae, nil
	}
	return NewAbortError(key, 0, cause), nil
}

func (a *AbortPlugin[Params, Return]) currentKey(ctx *ExecutionContext[Params, Return]) (string, bool) {
	extra := ctx.HooksRuntimes().Extra
	if extra == nil {
		return "", false
	}
	key, ok := extra[abortPluginExtraKey].(string)
	return key, ok
}
