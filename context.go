package executor

import (
	"maps"
	"slices"
	"sync"
)

// Recognized hook names. Custom names are accepted by the dispatch
// configuration but only these five resolve to an actual Plugin method.
const (
	HookBefore  = "onBefore"
	HookExec    = "onExec"
	HookSuccess = "onSuccess"
	HookError   = "onError"
	HookFinally = "onFinally"
)

// HookRuntimes is a snapshot of the pipeline's current dispatch state.
// Values handed to callers (via ExecutionContext.HooksRuntimes) are
// copies: mutating the returned struct never affects the live context.
type HookRuntimes struct {
	PluginName string
	// PluginIndex is the position of the currently (or most recently)
	// executing plugin. PluginIndexSet is false until the first plugin
	// runs for the current hook — the Go expression of "integer | unset".
	PluginIndex    int
	PluginIndexSet bool
	HookName       string
	// Times counts plugins that actually executed the current hook; it
	// is reset whenever the pipeline switches hook name.
	Times int
	// ReturnValue is the most recent non-nil plugin return value for
	// this hook.
	ReturnValue any
	// BreakChain, if set by a plugin, stops the pipeline before the
	// next plugin runs.
	BreakChain bool
	// ReturnBreakChain, if set, stops the pipeline after a plugin that
	// just produced a non-nil return value.
	ReturnBreakChain bool
	// ContinueOnError, if set, swallows a hook error and keeps
	// dispatching (used for finally-style hooks).
	ContinueOnError bool
	// Extra carries opaque caller-defined keys through unchanged.
	Extra map[string]any
}

func (r HookRuntimes) clone() HookRuntimes {
	out := r
	if r.Extra != nil {
		out.Extra = maps.Clone(r.Extra)
	}
	return out
}

// HookRuntimesPatch merges into the live HookRuntimes: nil fields leave
// the existing value untouched, mirroring a partial-update merge over a
// fixed key set.
type HookRuntimesPatch struct {
	PluginName       *string
	PluginIndex      *int
	HookName         *string
	Times            *int
	ReturnValue      any
	HasReturnValue   bool
	BreakChain       *bool
	ReturnBreakChain *bool
	ContinueOnError  *bool
	Extra            map[string]any
}

// Cloner shallow-copies a Params value so ExecutionContext never aliases
// caller-owned memory. The default cloner (see ShallowClone) passes
// primitives through unchanged and copies maps/slices/pointer-to-struct
// one level deep; callers of generic types Go can't reflect into
// meaningfully (channels, funcs) may supply their own Cloner via
// WithCloner.
type Cloner[Params any] func(Params) Params

// ExecutionContext holds the parameters, return value, error, and
// per-invocation hook-runtime state for a single Exec call.
type ExecutionContext[Params, Return any] struct {
	mu sync.RWMutex

	parameters Params
	cloner     Cloner[Params]

	returnValue    Return
	hasReturnValue bool

	err error

	runtimes HookRuntimes
}

// NewContext constructs a context over params, cloning it through cloner
// (or the package default if cloner is nil) so external mutation of the
// caller's value can never reach the context.
func NewContext[Params, Return any](params Params, cloner Cloner[Params]) *ExecutionContext[Params, Return] {
	if cloner == nil {
		cloner = ShallowClone[Params]
	}
	return &ExecutionContext[Params, Return]{
		parameters: cloner(params),
		cloner:     cloner,
	}
}

// Parameters returns the context's current (cloned) parameters.
func (c *ExecutionContext[Params, Return]) Parameters() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.parameters
}

// SetParameters stores a clone of p, decoupling the context from the
// caller's reference.
func (c *ExecutionContext[Params, Return]) SetParameters(p Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parameters = c.cloner(p)
}

// ReturnValue returns the current return value and whether one has been
// set (the zero value is ambiguous with "no value yet" for many types,
// so the second return is authoritative).
func (c *ExecutionContext[Params, Return]) ReturnValue() (Return, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.returnValue, c.hasReturnValue
}

// SetReturnValue stores the task's (or an overriding plugin's) result.
func (c *ExecutionContext[Params, Return]) SetReturnValue(v Return) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.returnValue = v
	c.hasReturnValue = true
}

// Error returns the last observed error, or nil.
func (c *ExecutionContext[Params, Return]) Error() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// SetError stores e as the last observed error. It does not normalize or
// wrap e into an *Error — normalization happens only at the executor's
// outer boundary.
func (c *ExecutionContext[Params, Return]) SetError(e error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = e
}

// HooksRuntimes returns a frozen snapshot of the current dispatch state.
// It is a value copy: there is no live reference a caller could use to
// mutate the context's internal state.
func (c *ExecutionContext[Params, Return]) HooksRuntimes() HookRuntimes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runtimes.clone()
}

// Runtimes merges a partial update into the internal runtimes map.
func (c *ExecutionContext[Params, Return]) Runtimes(patch HookRuntimesPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &c.runtimes
	if patch.PluginName != nil {
		r.PluginName = *patch.PluginName
	}
	if patch.PluginIndex != nil {
		r.PluginIndex = *patch.PluginIndex
		r.PluginIndexSet = true
	}
	if patch.HookName != nil {
		r.HookName = *patch.HookName
	}
	if patch.Times != nil {
		r.Times = *patch.Times
	}
	if patch.HasReturnValue {
		r.ReturnValue = patch.ReturnValue
	}
	if patch.BreakChain != nil {
		r.BreakChain = *patch.BreakChain
	}
	if patch.ReturnBreakChain != nil {
		r.ReturnBreakChain = *patch.ReturnBreakChain
	}
	if patch.ContinueOnError != nil {
		r.ContinueOnError = *patch.ContinueOnError
	}
	if patch.Extra != nil {
		if r.Extra == nil {
			r.Extra = make(map[string]any, len(patch.Extra))
		}
		maps.Copy(r.Extra, patch.Extra)
	}
}

// RuntimeReturnValue is a convenience for updating just the runtimes'
// ReturnValue slot.
func (c *ExecutionContext[Params, Return]) RuntimeReturnValue(v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runtimes.ReturnValue = v
}

// ResetHooksRuntimes partially resets the runtimes when switching to a
// new hook name: Times, ReturnValue, PluginName and PluginIndex (with
// PluginIndexSet) are cleared and HookName is set; everything else
// (including BreakChain/ContinueOnError flags set by a still-running
// multi-hook sequence, and Extra) is left as-is. Called with no
// arguments it clears every field.
func (c *ExecutionContext[Params, Return]) ResetHooksRuntimes(hookName ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(hookName) == 0 {
		c.runtimes = HookRuntimes{}
		return
	}
	c.runtimes.HookName = hookName[0]
	c.runtimes.Times = 0
	c.runtimes.ReturnValue = nil
	c.runtimes.PluginName = ""
	c.runtimes.PluginIndex = 0
	c.runtimes.PluginIndexSet = false
}

// Reset clears hooksRuntimes, the return value, and the error — called
// at the end of every Exec call.
func (c *ExecutionContext[Params, Return]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runtimes = HookRuntimes{}
	var zero Return
	c.returnValue = zero
	c.hasReturnValue = false
	c.err = nil
}

// ShouldBreakChain reports whether the pipeline should stop before the
// next plugin runs.
func (c *ExecutionContext[Params, Return]) ShouldBreakChain() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runtimes.BreakChain
}

// ShouldBreakChainOnReturn reports whether the pipeline should stop
// after a plugin that has just produced a non-nil return value.
func (c *ExecutionContext[Params, Return]) ShouldBreakChainOnReturn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runtimes.ReturnBreakChain
}

// ShouldContinueOnError reports whether a hook error should be swallowed
// instead of propagated.
func (c *ExecutionContext[Params, Return]) ShouldContinueOnError() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runtimes.ContinueOnError
}

// ShouldSkipPluginHook reports whether plugin should be skipped for
// hookName: true if the plugin has no method for that hook, or its
// Enabled hook (if any) returns false for it.
func (c *ExecutionContext[Params, Return]) ShouldSkipPluginHook(plugin Plugin[Params, Return], hookName string) bool {
	if !hasHook(plugin, hookName) {
		return true
	}
	if gated, ok := plugin.(EnabledGate[Params, Return]); ok {
		return !gated.Enabled(hookName, c)
	}
	return false
}

// hookSequence normalizes a single name or list into an ordered slice,
// matching the spec's "name or ordered list of names" hook config shape.
func hookSequence(names ...string) []string {
	return slices.Clone(names)
}
