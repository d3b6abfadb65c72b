package executor

// Task is the unit of work the executor drives. A task is invoked with
// the execution context and returns a value or, naturally in Go, may
// itself perform blocking I/O — there is no separate sync/async surface
// to unify.
type Task[Params, Return any] func(ctx *ExecutionContext[Params, Return]) (Return, error)

// Plugin is the minimal contract every plugin satisfies. Lifecycle
// methods (OnBefore, OnExec, OnSuccess, OnError, OnFinally) are optional
// and detected by type assertion against the Hook interfaces below,
// mirroring how internal/plugin/pipeline.go probes "streamPlugin, ok :=
// plugin.(StreamPlugin)" for optional capability.
type Plugin[Params, Return any] interface {
	PluginName() string
}

// OnlyOnePlugin marks a plugin as singleton: at most one instance with
// the same PluginName, or of the same concrete type, may be registered.
type OnlyOnePlugin interface {
	OnlyOne() bool
}

// EnabledGate lets a plugin opt in/out of a specific hook dispatch for a
// specific call.
type EnabledGate[Params, Return any] interface {
	Enabled(hookName string, ctx *ExecutionContext[Params, Return]) bool
}

// BeforeHook runs during the beforeHooks dispatch. A non-nil return
// value replaces the context's parameters (see LifecycleExecutor.Exec).
type BeforeHook[Params, Return any] interface {
	OnBefore(ctx *ExecutionContext[Params, Return]) (any, error)
}

// ExecHook runs during the single-name execHook dispatch. Its return
// value is interpreted after the whole dispatch, using the last non-nil
// return: a Task[Params, Return] value is a replacement task invoked in
// place of the user task; a Return value is used directly as the final
// result and the user task is skipped. The user task runs only when no
// plugin executed the exec hook at all; if plugins ran but all returned
// nil (or a value of neither type), the task is skipped and the result
// is the zero Return.
type ExecHook[Params, Return any] interface {
	OnExec(ctx *ExecutionContext[Params, Return], task Task[Params, Return]) (any, error)
}

// SuccessHook runs during the afterHooks dispatch, after the task (or
// its replacement) completed without error.
type SuccessHook[Params, Return any] interface {
	OnSuccess(ctx *ExecutionContext[Params, Return]) (any, error)
}

// ErrorHook runs once, on the error path. A non-nil return value becomes
// the effective error (subject to the same normalization as any other
// error).
type ErrorHook[Params, Return any] interface {
	OnError(ctx *ExecutionContext[Params, Return]) (any, error)
}

// FinallyHook always runs, regardless of success or failure. The
// pipeline dispatches it with ContinueOnError forced true, so a
// FinallyHook's own error never prevents sibling plugins' FinallyHook
// from running and never overrides the outcome.
type FinallyHook[Params, Return any] interface {
	OnFinally(ctx *ExecutionContext[Params, Return]) (any, error)
}

// hasHook reports whether plugin implements the Go method backing
// hookName. Names outside the five recognized ones never match — they
// pass straight through runHook as a no-op dispatch, same as an absent
// method.
func hasHook[Params, Return any](plugin Plugin[Params, Return], hookName string) bool {
	switch hookName {
	case HookBefore:
		_, ok := plugin.(BeforeHook[Params, Return])
		return ok
	case HookExec:
		_, ok := plugin.(ExecHook[Params, Return])
		return ok
	case HookSuccess:
		_, ok := plugin.(SuccessHook[Params, Return])
		return ok
	case HookError:
		_, ok := plugin.(ErrorHook[Params, Return])
		return ok
	case HookFinally:
		_, ok := plugin.(FinallyHook[Params, Return])
		return ok
	default:
		return false
	}
}

// invokeHook calls the method backing hookName, if plugin implements it.
// executed is false when the plugin has no such method — the pipeline
// treats that identically to an absent property: skip, no error.
func invokeHook[Params, Return any](
	plugin Plugin[Params, Return],
	hookName string,
	ctx *ExecutionContext[Params, Return],
	task Task[Params, Return],
) (result any, executed bool, err error) {
	switch hookName {
	case HookBefore:
		p, ok := plugin.(BeforeHook[Params, Return])
		if !ok {
			return nil, false, nil
		}
		result, err = p.OnBefore(ctx)
		return result, true, err
	case HookExec:
		p, ok := plugin.(ExecHook[Params, Return])
		if !ok {
			return nil, false, nil
		}
		result, err = p.OnExec(ctx, task)
		return result, true, err
	case HookSuccess:
		p, ok := plugin.(SuccessHook[Params, Return])
		if !ok {
			return nil, false, nil
		}
		result, err = p.OnSuccess(ctx)
		return result, true, err
	case HookError:
		p, ok := plugin.(ErrorHook[Params, Return])
		if !ok {
			return nil, false, nil
		}
		result, err = p.OnError(ctx)
		return result, true, err
	case HookFinally:
		p, ok := plugin.(FinallyHook[Params, Return])
		if !ok {
			return nil, false, nil
		}
		result, err = p.OnFinally(ctx)
		return result, true, err
	default:
		return nil, false, nil
	}
}

// samePlugin reports whether a and b are the same registered plugin for
// onlyOne purposes: identity, equal PluginName, or equal dynamic type —
// the spec's documented "union of identity/name/constructor" policy.
func samePlugin[Params, Return any](a, b Plugin[Params, Return]) bool {
	if a == b {
		return true
	}
	if a.PluginName() != "" && a.PluginName() == b.PluginName() {
		return true
	}
	return sameConcreteType(a, b)
}
