package builtin

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	executor "github.com/flowexec/executor"
)

const tracingSpanKey = "builtin.tracing.span"

// TracingPlugin opens one span per Exec call via go.opentelemetry.io/otel,
// the ambient observability pattern the teacher reserves for HTTP
// handlers generalized here to every executor call.
type TracingPlugin[Params, Return any] struct {
	Tracer trace.Tracer
	Name   string
}

// NewTracingPlugin builds a plugin drawing spans from
// otel.Tracer(instrumentationName).
func NewTracingPlugin[Params, Return any](instrumentationName, spanName string) *TracingPlugin[Params, Return] {
	return &TracingPlugin[Params, Return]{
		Tracer: otel.Tracer(instrumentationName),
		Name:   spanName,
	}
}

func (p *TracingPlugin[Params, Return]) PluginName() string { return "tracing" }
func (p *TracingPlugin[Params, Return]) OnlyOne() bool       { return true }

func (p *TracingPlugin[Params, Return]) OnBefore(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	_, span := p.Tracer.Start(context.Background(), p.Name)
	ctx.Runtimes(executor.HookRuntimesPatch{Extra: map[string]any{tracingSpanKey: span}})
	return nil, nil
}

func (p *TracingPlugin[Params, Return]) OnSuccess(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	if span, ok := p.span(ctx); ok {
		span.SetStatus(codes.Ok, "")
		span.End()
	}
	return nil, nil
}

func (p *TracingPlugin[Params, Return]) OnError(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	if span, ok := p.span(ctx); ok {
		if err := ctx.Error(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("error.message", err.Error()))
		}
		span.End()
	}
	return nil, nil
}

func (p *TracingPlugin[Params, Return]) span(ctx *executor.ExecutionContext[Params, Return]) (trace.Span, bool) {
	extra := ctx.HooksRuntimes().Extra
	if extra == nil {
		return nil, false
	}
	span, ok := extra[tracingSpanKey].(trace.Span)
	return span, ok
}
