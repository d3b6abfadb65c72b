// Package builtin provides ready-to-register executor.Plugin
// implementations — logging, rate limiting, caching, metrics, tracing,
// and JWT authentication — adapted from the teacher's
// internal/plugin/builtin package to the executor's generic lifecycle.
package builtin

import (
	"log/slog"
	"time"

	executor "github.com/flowexec/executor"
)

const loggingStartTimeKey = "builtin.logging.startTime"

// LoggingPlugin logs the start, completion, and failure of every exec
// call, generalized from internal/plugin/builtin/logging.go's
// PreHook/PostHook request/response logging to arbitrary Params/Return
// types via the Describe callbacks.
type LoggingPlugin[Params, Return any] struct {
	Logger *slog.Logger

	// DescribeParams/DescribeResult, if set, append their attrs to the
	// start/completion log lines; callers needing full payload logging
	// supply them, mirroring LogRequestBody/LogResponseBody.
	DescribeParams func(Params) []any
	DescribeResult func(Return) []any
}

// NewLoggingPlugin builds a LoggingPlugin, defaulting to slog.Default()
// and no payload description.
func NewLoggingPlugin[Params, Return any](logger *slog.Logger) *LoggingPlugin[Params, Return] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingPlugin[Params, Return]{Logger: logger}
}

func (p *LoggingPlugin[Params, Return]) PluginName() string { return "logging" }

func (p *LoggingPlugin[Params, Return]) OnBefore(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	attrs := []any{"start", time.Now().Format(time.RFC3339Nano)}
	if p.DescribeParams != nil {
		attrs = append(attrs, p.DescribeParams(ctx.Parameters())...)
	}
	p.Logger.Info("exec started", attrs...)

	ctx.Runtimes(executor.HookRuntimesPatch{Extra: map[string]any{loggingStartTimeKey: time.Now()}})
	return nil, nil
}

func (p *LoggingPlugin[Params, Return]) OnSuccess(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	attrs := []any{"latency_ms", p.latencyMs(ctx)}
	if p.DescribeResult != nil {
		if v, ok := ctx.ReturnValue(); ok {
			attrs = append(attrs, p.DescribeResult(v)...)
		}
	}
	p.Logger.Info("exec completed", attrs...)
	return nil, nil
}

func (p *LoggingPlugin[Params, Return]) OnError(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	p.Logger.Error("exec failed", "latency_ms", p.latencyMs(ctx), "error", ctx.Error())
	return nil, nil
}

func (p *LoggingPlugin[Params, Return]) latencyMs(ctx *executor.ExecutionContext[Params, Return]) int64 {
	extra := ctx.HooksRuntimes().Extra
	if extra == nil {
		return 0
	}
	start, ok := extra[loggingStartTimeKey].(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start).Milliseconds()
}
