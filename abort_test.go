package executor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAbortPoolGenerateKeyFallback(t *testing.T) {
	pool := NewAbortPool("test")
	if k := pool.GenerateKey(AbortConfig{RequestID: "req-1"}); k != "req-1" {
		t.Fatalf("expected RequestID to win, got %q", k)
	}
	if k := pool.GenerateKey(AbortConfig{ID: "id-1"}); k != "id-1" {
		t.Fatalf("expected ID fallback, got %q", k)
	}
	k1 := pool.GenerateKey(AbortConfig{})
	k2 := pool.GenerateKey(AbortConfig{})
	if k1 == k2 {
		t.Fatalf("expected distinct counter-based keys, got %q twice", k1)
	}
}

func TestAbortPoolDuplicateKeyPreemption(t *testing.T) {
	pool := NewAbortPool("test")
	first, key := pool.Register(context.Background(), AbortConfig{ID: "same"})
	second, key2 := pool.Register(context.Background(), AbortConfig{ID: "same"})

	if key != key2 {
		t.Fatalf("expected the same key to be reused, got %q and %q", key, key2)
	}
	select {
	case <-first.Done():
	default:
		t.Fatalf("registering a duplicate key must abort the previous entry immediately")
	}
	select {
	case <-second.Done():
		t.Fatalf("the new entry must not be aborted by its own registration")
	default:
	}
}

func TestAbortPoolAbortReturnsFalseForUnknownKey(t *testing.T) {
	pool := NewAbortPool("test")
	if pool.Abort("missing", nil) {
		t.Fatalf("expected Abort to report false for a key with no entry")
	}
}

func TestAbortPoolAbortFiresCallbackOnce(t *testing.T) {
	pool := NewAbortPool("test")
	_, key := pool.Register(context.Background(), AbortConfig{ID: "k"})

	calls := 0
	if !pool.Abort(key, func(string) { calls++ }) {
		t.Fatalf("expected Abort to report true for a live entry")
	}
	if calls != 1 {
		t.Fatalf("expected onAborted to fire exactly once, got %d", calls)
	}
	if pool.Abort(key, func(string) { calls++ }) {
		t.Fatalf("second Abort on an already-removed key should report false")
	}
}

func TestAbortPoolTimeoutFiresAbortError(t *testing.T) {
	pool := NewAbortPool("test")
	ctx, _ := pool.Register(context.Background(), AbortConfig{ID: "timeout", Timeout: 10 * time.Millisecond})

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected the timeout to fire")
	}

	var ae *AbortError
	if !errors.As(context.Cause(ctx), &ae) {
		t.Fatalf("expected a timeout to produce an *AbortError, got %v", context.Cause(ctx))
	}
	if !ae.IsTimeout() {
		t.Fatalf("expected IsTimeout() to be true for a timer-triggered abort")
	}
}

func TestAbortPoolCleanupDoesNotFire(t *testing.T) {
	pool := NewAbortPool("test")
	ctx, key := pool.Register(context.Background(), AbortConfig{ID: "k"})
	pool.Cleanup(key)

	select {
	case <-ctx.Done():
		t.Fatalf("cleanup must not fire the context")
	default:
	}
	if pool.Abort(key, nil) {
		t.Fatalf("cleanup should have removed the entry")
	}
}

func TestIsAbortErrorClassifiesManualAndTimeout(t *testing.T) {
	manual := NewAbortError("k", 0, nil)
	if !isAbortError(manual) {
		t.Fatalf("expected a manual AbortError to classify as abort")
	}
	if manual.IsTimeout() {
		t.Fatalf("manual abort must not report IsTimeout")
	}
	if isAbortError(errors.New("unrelated")) {
		t.Fatalf("a plain error must not classify as abort")
	}
}

func TestRaceWithAbortNilContextRunsUnraced(t *testing.T) {
	v, err := RaceWithAbort[string](nil, func() (string, error) {
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("expected unraced success, got %q, %v", v, err)
	}
}

func TestRaceWithAbortAlreadyDoneReturnsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(NewAbortError("k", 0, nil))

	started := false
	_, err := RaceWithAbort[string](ctx, func() (string, error) {
		started = true
		return "ok", nil
	})
	if err == nil {
		t.Fatalf("expected an error from an already-cancelled context")
	}
	if started {
		t.Fatalf("fn must not run once ctx is already done")
	}
}
