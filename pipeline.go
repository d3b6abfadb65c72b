package executor

// RunHook dispatches a single hook name across plugins in order,
// honoring enablement, chain breaks, and error-continue. It mirrors the
// iterate/skip-disabled/invoke/inspect-result loop in
// internal/plugin/pipeline.go's RunPreHooks, generalized from two fixed
// method names to an arbitrary hook-name dispatch table.
func RunHook[Params, Return any](
	plugins []Plugin[Params, Return],
	hookName string,
	ctx *ExecutionContext[Params, Return],
	task Task[Params, Return],
) (any, error) {
	ctx.ResetHooksRuntimes(hookName)

	var lastReturn any
	times := 0

	for i, p := range plugins {
		if ctx.ShouldSkipPluginHook(p, hookName) {
			continue
		}
		if ctx.ShouldBreakChain() {
			break
		}

		name := p.PluginName()
		idx := i
		times++
		t := times
		ctx.Runtimes(HookRuntimesPatch{
			PluginName:  &name,
			HookName:    &hookName,
			PluginIndex: &idx,
			Times:       &t,
		})

		result, executed, err := invokeHook(p, hookName, ctx, task)
		if !executed {
			continue
		}
		if err != nil {
			if ctx.ShouldContinueOnError() {
				continue
			}
			return lastReturn, err
		}

		if result != nil {
			lastReturn = result
			ctx.RuntimeReturnValue(result)
			if ctx.ShouldBreakChainOnReturn() {
				break
			}
		}
	}

	return lastReturn, nil
}

// RunHooks dispatches a sequence of hook names in order, accumulating
// the last non-nil return across all of them. A hookNames of length one
// is the common case (e.g. the fixed errorHook/finallyHook); longer
// sequences are the Go expression of the spec's "name or ordered list of
// names" hook configuration.
func RunHooks[Params, Return any](
	plugins []Plugin[Params, Return],
	hookNames []string,
	ctx *ExecutionContext[Params, Return],
	task Task[Params, Return],
) (any, error) {
	var lastReturn any

	for _, name := range hookNames {
		result, err := RunHook(plugins, name, ctx, task)
		if result != nil {
			lastReturn = result
		}
		if err != nil {
			if ctx.ShouldContinueOnError() {
				continue
			}
			return lastReturn, err
		}
		if ctx.ShouldBreakChain() {
			break
		}
	}

	return lastReturn, nil
}
