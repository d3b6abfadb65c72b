package executor

import "time"

// RetryPlugin is registered on the exec hook. Its OnExec never calls the
// task itself — it returns a replacement task that retries the original
// up to MaxRetries additional times, which is what LifecycleExecutor's
// runExec step treats as a replacement task to invoke.
type RetryPlugin[Params, Return any] struct {
	Name string

	// MaxRetries is the number of retries after the initial attempt;
	// total invocations are MaxRetries+1. NewRetryPlugin sets it from its
	// maxRetries argument; there is no built-in default, and a bare
	// struct literal leaves it 0 (a single attempt).
	MaxRetries int
	// RetryDelay is awaited between attempts.
	RetryDelay time.Duration
	// ShouldRetry decides whether a failed attempt should be retried.
	// Defaults to "retry anything that isn't an abort".
	ShouldRetry func(err error) bool
	// Sleep is the delay primitive, overridable for tests.
	Sleep func(time.Duration)
}

// NewRetryPlugin builds a RetryPlugin with the given retry count and
// delay (it applies no defaults of its own), time.Sleep as the delay
// primitive, and a predicate that retries everything except aborts.
func NewRetryPlugin[Params, Return any](name string, maxRetries int, retryDelay time.Duration) *RetryPlugin[Params, Return] {
	return &RetryPlugin[Params, Return]{
		Name:       name,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		ShouldRetry: func(err error) bool {
			return !isAbortError(err)
		},
		Sleep: time.Sleep,
	}
}

func (r *RetryPlugin[Params, Return]) PluginName() string { return r.Name }

// OnExec returns a replacement task closure; it performs no work itself.
func (r *RetryPlugin[Params, Return]) OnExec(_ *ExecutionContext[Params, Return], task Task[Params, Return]) (any, error) {
	shouldRetry := r.ShouldRetry
	if shouldRetry == nil {
		// A RetryPlugin built as a bare struct literal (not via
		// NewRetryPlugin) still must not retry aborts, per §4.5.
		shouldRetry = func(err error) bool { return !isAbortError(err) }
	}

	replacement := Task[Params, Return](func(ctx *ExecutionContext[Params, Return]) (Return, error) {
		var lastErr error
		var zero Return

		attempts := r.MaxRetries + 1
		for attempt := 0; attempt < attempts; attempt++ {
			v, err := task(ctx)
			if err == nil {
				return v, nil
			}
			lastErr = err

			if attempt == attempts-1 {
				break
			}
			if !shouldRetry(err) {
				break
			}
			if r.RetryDelay > 0 && r.Sleep != nil {
				r.Sleep(r.RetryDelay)
			}
		}
		return zero, lastErr
	})
	return replacement, nil
}
