package builtin

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	executor "github.com/flowexec/executor"
)

const metricsStartTimeKey = "builtin.metrics.startTime"

// MetricsPlugin records exec counts and latency via
// prometheus/client_golang, generalizing
// internal/plugin/builtin/metrics.go's hand-rolled atomic counters and
// manual percentile computation to the standard Prometheus client
// library's Counter/Histogram types, which already provide
// aggregation, labels, and export.
type MetricsPlugin[Params, Return any] struct {
	Name string

	Total    *prometheus.CounterVec
	Failures *prometheus.CounterVec
	Latency  *prometheus.HistogramVec

	// labelValue is the "executor" label value on every metric;
	// NewMetricsPlugin sets it to name.
	labelValue string
}

// NewMetricsPlugin registers a fresh set of vectors against registerer
// (pass prometheus.DefaultRegisterer for the global registry, or a
// prometheus.NewRegistry() in tests).
func NewMetricsPlugin[Params, Return any](name string, registerer prometheus.Registerer) *MetricsPlugin[Params, Return] {
	p := &MetricsPlugin[Params, Return]{
		Name:       name,
		labelValue: name,
		Total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "executor_exec_total",
			Help: "Total number of executor.Exec calls.",
		}, []string{"executor"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "executor_exec_failures_total",
			Help: "Total number of executor.Exec calls that ended in error.",
		}, []string{"executor"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "executor_exec_duration_seconds",
			Help:    "Latency of executor.Exec calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"executor"}),
	}
	registerer.MustRegister(p.Total, p.Failures, p.Latency)
	return p
}

func (p *MetricsPlugin[Params, Return]) PluginName() string { return "metrics" }
func (p *MetricsPlugin[Params, Return]) OnlyOne() bool       { return true }

func (p *MetricsPlugin[Params, Return]) OnBefore(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	p.Total.WithLabelValues(p.labelValue).Inc()
	ctx.Runtimes(executor.HookRuntimesPatch{Extra: map[string]any{metricsStartTimeKey: time.Now()}})
	return nil, nil
}

func (p *MetricsPlugin[Params, Return]) OnSuccess(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	p.observeLatency(ctx)
	return nil, nil
}

func (p *MetricsPlugin[Params, Return]) OnError(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	p.Failures.WithLabelValues(p.labelValue).Inc()
	p.observeLatency(ctx)
	return nil, nil
}

func (p *MetricsPlugin[Params, Return]) observeLatency(ctx *executor.ExecutionContext[Params, Return]) {
	extra := ctx.HooksRuntimes().Extra
	if extra == nil {
		return
	}
	start, ok := extra[metricsStartTimeKey].(time.Time)
	if !ok {
		return
	}
	p.Latency.WithLabelValues(p.labelValue).Observe(time.Since(start).Seconds())
}
