package executor

import (
	"context"
	"errors"
	"testing"
	"time"
)

// rewritePlugin replaces the context parameters during onBefore.
type rewritePlugin struct{ Name string }

func (p *rewritePlugin) PluginName() string { return p.Name }
func (p *rewritePlugin) OnBefore(ctx *ExecutionContext[testParams, string]) (any, error) {
	return testParams{Name: "rewritten"}, nil
}

func TestExecBeforeHookRewritesParameters(t *testing.T) {
	exec := New[testParams, string]()
	_ = exec.Use(&rewritePlugin{Name: "rewriter"})

	var seen string
	_, err := exec.ExecWithData(testParams{Name: "original"}, func(ctx *ExecutionContext[testParams, string]) (string, error) {
		seen = ctx.Parameters().Name
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "rewritten" {
		t.Fatalf("expected onBefore to rewrite parameters, task observed %q", seen)
	}
}

// injectingPlugin short-circuits onExec with a plain value, skipping the
// task entirely — the cache-hit scenario.
type injectingPlugin struct{ Name string }

func (p *injectingPlugin) PluginName() string { return p.Name }
func (p *injectingPlugin) OnExec(ctx *ExecutionContext[testParams, string], task Task[testParams, string]) (any, error) {
	return "cached", nil
}

func TestExecOnExecInjectsValueAndSkipsTask(t *testing.T) {
	exec := New[testParams, string]()
	_ = exec.Use(&injectingPlugin{Name: "cache"})

	taskCalled := false
	result, err := exec.Exec(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		taskCalled = true
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "cached" {
		t.Fatalf("expected injected value %q, got %q", "cached", result)
	}
	if taskCalled {
		t.Fatalf("task should never run when onExec injects a plain value")
	}
}

// replacingPlugin returns a replacement task from onExec.
type replacingPlugin struct{ Name string }

func (p *replacingPlugin) PluginName() string { return p.Name }
func (p *replacingPlugin) OnExec(ctx *ExecutionContext[testParams, string], task Task[testParams, string]) (any, error) {
	replacement := Task[testParams, string](func(ctx *ExecutionContext[testParams, string]) (string, error) {
		v, err := task(ctx)
		if err != nil {
			return "", err
		}
		return v + "-wrapped", nil
	})
	return replacement, nil
}

func TestExecOnExecReplacesTask(t *testing.T) {
	exec := New[testParams, string]()
	_ = exec.Use(&replacingPlugin{Name: "wrapper"})

	result, err := exec.Exec(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "fresh-wrapped" {
		t.Fatalf("expected replacement task result, got %q", result)
	}
}

func TestExecNoPluginsCallsTaskDirectly(t *testing.T) {
	exec := New[testParams, string]()
	result, err := exec.Exec(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		return "direct", nil
	})
	if err != nil || result != "direct" {
		t.Fatalf("expected direct task call, got %q, %v", result, err)
	}
}

// finallyPlugin records whether onFinally ran.
type finallyPlugin struct {
	Name string
	Ran  *bool
}

func (p *finallyPlugin) PluginName() string { return p.Name }
func (p *finallyPlugin) OnFinally(ctx *ExecutionContext[testParams, string]) (any, error) {
	*p.Ran = true
	return nil, errors.New("finally plugin error must not escape")
}

func TestExecFinallyAlwaysRunsAndCannotAlterOutcome(t *testing.T) {
	ran := false
	exec := New[testParams, string]()
	_ = exec.Use(&finallyPlugin{Name: "cleanup", Ran: &ran})

	result, err := exec.Exec(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		return "", errors.New("task failed")
	})
	if err == nil {
		t.Fatalf("expected the original task error to propagate")
	}
	if result != "" {
		t.Fatalf("expected zero-value result on failure, got %q", result)
	}
	if !ran {
		t.Fatalf("expected onFinally to run even though the task failed")
	}
}

func TestExecErrorIsNormalized(t *testing.T) {
	exec := New[testParams, string]()
	_, err := exec.Exec(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		return "", errors.New("plain failure")
	})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected error to be normalized to *Error, got %T", err)
	}
	if e.ID != IDUnknownAsyncError {
		t.Fatalf("expected fallback id %q, got %q", IDUnknownAsyncError, e.ID)
	}
}

func TestExecNoErrorReturnsConcreteError(t *testing.T) {
	exec := New[testParams, string]()
	_, execErr := exec.ExecNoError(func(ctx *ExecutionContext[testParams, string]) (string, error) {
		return "", errors.New("plain failure")
	})
	if execErr == nil {
		t.Fatalf("expected a non-nil *Error")
	}
}

// singletonPlugin is OnlyOne, so a second registration sharing its name
// must be rejected.
type singletonPlugin struct{ Name string }

func (p *singletonPlugin) PluginName() string { return p.Name }
func (p *singletonPlugin) OnlyOne() bool      { return true }

func TestUseRejectsDuplicateOnlyOnePlugin(t *testing.T) {
	exec := New[testParams, string]()
	if err := exec.Use(&singletonPlugin{Name: "dup"}); err != nil {
		t.Fatalf("unexpected error registering first plugin: %v", err)
	}
	if err := exec.Use(&singletonPlugin{Name: "dup"}); !errors.Is(err, ErrDuplicatePlugin) {
		t.Fatalf("expected ErrDuplicatePlugin for a second onlyOne registration with the same name, got %v", err)
	}
}

func TestUseRejectsNilPlugin(t *testing.T) {
	exec := New[testParams, string]()
	if err := exec.Use(nil); !errors.Is(err, ErrNilPlugin) {
		t.Fatalf("expected ErrNilPlugin, got %v", err)
	}
}

// TestExecTimeoutAbortSurfacesAbortError is the executor-level version
// of scenario S4: a task racing a long sleep against a timeout-bound
// abort context must see exactly that *AbortError escape Exec, with its
// id and timeout intact rather than re-wrapped as UNKNOWN_ASYNC_ERROR.
func TestExecTimeoutAbortSurfacesAbortError(t *testing.T) {
	exec := New[testParams, string]()
	pool := NewAbortPool("lifecycle-timeout")

	_, err := exec.ExecWithData(testParams{Name: "x"}, func(ctx *ExecutionContext[testParams, string]) (string, error) {
		abortCtx, _ := pool.Register(context.Background(), AbortConfig{ID: "call", Timeout: 20 * time.Millisecond})
		return RaceWithAbort(abortCtx, func() (string, error) {
			time.Sleep(time.Second)
			return "too slow", nil
		})
	})

	var ae *AbortError
	if !errors.As(err, &ae) {
		t.Fatalf("expected an *AbortError to escape Exec unchanged, got %T: %v", err, err)
	}
	if ae.ID != IDAbortError {
		t.Fatalf("expected id %q, got %q", IDAbortError, ae.ID)
	}
	if !ae.IsTimeout() {
		t.Fatalf("expected a timeout abort, got a manual one")
	}
}

// TestExecDuplicateKeyPreemptionSurfacesManualAbort is the executor-level
// version of scenario S5: registering the same key again while a first
// Exec call is still waiting on it must pre-empt the first call, which
// surfaces a manual (non-timeout) *AbortError, not a generic wrapped error.
func TestExecDuplicateKeyPreemptionSurfacesManualAbort(t *testing.T) {
	exec := New[testParams, string]()
	pool := NewAbortPool("lifecycle-preempt")

	first := make(chan error, 1)
	go func() {
		_, err := exec.ExecWithData(testParams{Name: "first"}, func(ctx *ExecutionContext[testParams, string]) (string, error) {
			abortCtx, _ := pool.Register(context.Background(), AbortConfig{ID: "same"})
			return RaceWithAbort(abortCtx, func() (string, error) {
				time.Sleep(time.Second)
				return "never", nil
			})
		})
		first <- err
	}()

	time.Sleep(50 * time.Millisecond) // let the first call register and start racing
	pool.Register(context.Background(), AbortConfig{ID: "same"})

	select {
	case err := <-first:
		var ae *AbortError
		if !errors.As(err, &ae) {
			t.Fatalf("expected the pre-empted call to surface an *AbortError, got %T: %v", err, err)
		}
		if ae.IsTimeout() {
			t.Fatalf("expected a manual abort, not a timeout")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the pre-empted exec to return")
	}
}
