package executor

import (
	"errors"
	"fmt"
)

// LifecycleExecutor orchestrates the full before -> exec -> after ->
// error -> finally lifecycle around a user task, dispatching the
// configured hook names across its registered plugins on every call. It
// is the generalization of internal/plugin/pipeline.go's Pipeline type
// from the gateway's two fixed pre/post hooks to an arbitrary,
// configurable hook sequence.
type LifecycleExecutor[Params, Return any] struct {
	plugins []Plugin[Params, Return]

	beforeHooks []string
	afterHooks  []string
	execHook    string
	errorHook   string
	finallyHook string

	cloner Cloner[Params]
	logger Logger
}

// New constructs a LifecycleExecutor with the default hook names
// ("onBefore", "onSuccess", "onExec", fixed "onError"/"onFinally"),
// applying any supplied options.
func New[Params, Return any](opts ...Option[Params, Return]) *LifecycleExecutor[Params, Return] {
	l := &LifecycleExecutor[Params, Return]{
		beforeHooks: []string{HookBefore},
		afterHooks:  []string{HookSuccess},
		execHook:    HookExec,
		errorHook:   HookError,
		finallyHook: HookFinally,
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Use registers a plugin, preserving insertion order. It rejects a nil
// plugin and, when the plugin implements OnlyOnePlugin and reports true,
// rejects a duplicate of an already-registered plugin (same identity,
// PluginName, or concrete type).
func (l *LifecycleExecutor[Params, Return]) Use(plugin Plugin[Params, Return]) error {
	if plugin == nil {
		return ErrNilPlugin
	}
	if only, ok := plugin.(OnlyOnePlugin); ok && only.OnlyOne() {
		for _, existing := range l.plugins {
			if samePlugin(existing, plugin) {
				return fmt.Errorf("%w: %s", ErrDuplicatePlugin, plugin.PluginName())
			}
		}
	}
	l.plugins = append(l.plugins, plugin)
	l.logger.Debug("executor: plugin registered", "plugin", plugin.PluginName())
	return nil
}

// Exec runs task with a context built over an empty Params value.
func (l *LifecycleExecutor[Params, Return]) Exec(task Task[Params, Return]) (Return, error) {
	var zero Params
	return l.ExecWithData(zero, task)
}

// ExecWithData runs task with a context built over data as the initial
// parameters.
func (l *LifecycleExecutor[Params, Return]) ExecWithData(data Params, task Task[Params, Return]) (Return, error) {
	return l.run(data, task)
}

// ExecNoError is identical to Exec, except the error result is guaranteed
// to already be normalized to *Error rather than the bare error
// interface, sparing callers an errors.As.
func (l *LifecycleExecutor[Params, Return]) ExecNoError(task Task[Params, Return]) (Return, *Error) {
	var zero Params
	ret, err := l.run(zero, task)
	if err == nil {
		return ret, nil
	}
	return ret, Wrap(err, IDUnknownAsyncError)
}

// run implements the precise pipeline order from the lifecycle
// configuration: before -> exec -> task -> after, with finally always
// running last regardless of outcome, and a single error path shared by
// every failure source.
func (l *LifecycleExecutor[Params, Return]) run(data Params, task Task[Params, Return]) (ret Return, outErr error) {
	ctx := NewContext[Params, Return](data, l.cloner)

	defer func() {
		ctx.Runtimes(HookRuntimesPatch{ContinueOnError: boolPtr(true)})
		_, _ = RunHooks(l.plugins, []string{l.finallyHook}, ctx, task)
		ctx.Reset()
	}()

	if before, err := RunHooks(l.plugins, l.beforeHooks, ctx, task); err != nil {
		return ret, l.fail(ctx, err)
	} else if before != nil {
		if p, ok := before.(Params); ok {
			ctx.SetParameters(p)
		}
	}

	if err := l.runExec(ctx, task); err != nil {
		return ret, l.fail(ctx, err)
	}

	if _, err := RunHooks(l.plugins, l.afterHooks, ctx, task); err != nil {
		return ret, l.fail(ctx, err)
	}

	ret, _ = ctx.ReturnValue()
	return ret, nil
}

// runExec implements step 3 of the lifecycle: no plugin ran the exec
// hook -> call the task directly; the hook produced a replacement task
// -> call that instead; the hook produced a plain value -> use it as the
// final result and never call task at all.
func (l *LifecycleExecutor[Params, Return]) runExec(ctx *ExecutionContext[Params, Return], task Task[Params, Return]) error {
	result, err := RunHook(l.plugins, l.execHook, ctx, task)
	if err != nil {
		return err
	}

	runtimes := ctx.HooksRuntimes()
	if runtimes.Times == 0 {
		v, err := task(ctx)
		if err != nil {
			return err
		}
		ctx.SetReturnValue(v)
		return nil
	}

	if replacement, ok := result.(Task[Params, Return]); ok {
		v, err := replacement(ctx)
		if err != nil {
			return err
		}
		ctx.SetReturnValue(v)
		return nil
	}

	if v, ok := result.(Return); ok {
		ctx.SetReturnValue(v)
		return nil
	}

	var zero Return
	ctx.SetReturnValue(zero)
	return nil
}

// fail implements the error path: record the error, run errorHook and
// let a non-nil return override it, then normalize to *Error.
func (l *LifecycleExecutor[Params, Return]) fail(ctx *ExecutionContext[Params, Return], cause error) error {
	ctx.SetError(cause)

	if result, err := RunHook(l.plugins, l.errorHook, ctx, nil); err != nil {
		cause = err
	} else if result != nil {
		if e, ok := result.(error); ok {
			cause = e
		} else {
			cause = NewErrorFromValue(IDUnknownAsyncError, result)
		}
	}
	ctx.SetError(cause)

	// *AbortError embeds *Error by value, so it is never itself a *Error
	// and errors.As(cause, &e) below would miss it (its promoted Unwrap
	// returns the possibly-nil embedded Cause, ending the chain there).
	// Check it first so an abort rethrows with id IDAbortError intact,
	// per spec.md §4.3 ("if the final error is already an ExecutorError,
	// rethrow it unchanged").
	var ae *AbortError
	if errors.As(cause, &ae) {
		return ae
	}

	var e *Error
	if errors.As(cause, &e) {
		return e
	}
	return NewError(IDUnknownAsyncError, cause)
}

func boolPtr(b bool) *bool { return &b }
