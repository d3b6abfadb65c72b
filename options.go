package executor

// Option configures a LifecycleExecutor at construction time, following
// the functional-options convention used throughout the teacher's
// options.go.
type Option[Params, Return any] func(*LifecycleExecutor[Params, Return])

// WithBeforeHooks overrides the default single "onBefore" dispatch with
// an ordered sequence of hook names.
func WithBeforeHooks[Params, Return any](names ...string) Option[Params, Return] {
	return func(l *LifecycleExecutor[Params, Return]) {
		l.beforeHooks = hookSequence(names...)
	}
}

// WithAfterHooks overrides the default single "onSuccess" dispatch.
func WithAfterHooks[Params, Return any](names ...string) Option[Params, Return] {
	return func(l *LifecycleExecutor[Params, Return]) {
		l.afterHooks = hookSequence(names...)
	}
}

// WithExecHook overrides the default "onExec" dispatch name.
func WithExecHook[Params, Return any](name string) Option[Params, Return] {
	return func(l *LifecycleExecutor[Params, Return]) {
		l.execHook = name
	}
}

// WithCloner installs a custom Cloner for Params, replacing ShallowClone.
// Use this for Params types reflection can't meaningfully copy, such as
// ones holding channels or funcs.
func WithCloner[Params, Return any](cloner Cloner[Params]) Option[Params, Return] {
	return func(l *LifecycleExecutor[Params, Return]) {
		l.cloner = cloner
	}
}

// WithLogger installs the ambient logger used for lifecycle diagnostics
// (currently plugin registration only). Defaults to a no-op logger.
func WithLogger[Params, Return any](logger Logger) Option[Params, Return] {
	return func(l *LifecycleExecutor[Params, Return]) {
		if logger != nil {
			l.logger = logger
		}
	}
}
