package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// AbortError is the cancellation flavor of Error: id is always
// IDAbortError, AbortID identifies the AbortPool entry that produced it,
// and Timeout is positive only for a timeout-triggered abort (Manual
// aborts leave it zero, letting IsTimeout discriminate the two).
type AbortError struct {
	*Error
	AbortID string
	Timeout time.Duration
}

// NewAbortError builds an AbortError wrapping cause (may be nil).
func NewAbortError(abortID string, timeout time.Duration, cause error) *AbortError {
	msg := "the operation was aborted"
	if cause != nil {
		msg = cause.Error()
	}
	return &AbortError{
		Error:   &Error{ID: IDAbortError, Message: msg, Cause: cause, name: "AbortError"},
		AbortID: abortID,
		Timeout: timeout,
	}
}

// IsTimeout reports whether this abort was raised by the pool's own
// timer rather than an explicit Abort call.
func (e *AbortError) IsTimeout() bool { return e.Timeout > 0 }

// Description composes a human-readable summary: message, abort id, and
// timeout when present.
func (e *AbortError) Description() string {
	d := e.Message
	if e.AbortID != "" {
		d = fmt.Sprintf("%s (abortId=%s)", d, e.AbortID)
	}
	if e.Timeout > 0 {
		d = fmt.Sprintf("%s (timeout=%s)", d, e.Timeout)
	}
	return d
}

// isAbortError reports whether err is, or wraps, an AbortError, or
// carries IDAbortError under a plain *Error — the Go stand-ins for the
// source contract's "instance, name==AbortError, or id==ABORT_ERROR"
// checks. A context.Canceled/DeadlineExceeded also counts, since those
// are what Go's own cancellation machinery surfaces.
func isAbortError(err error) bool {
	if err == nil {
		return false
	}
	var ae *AbortError
	if errors.As(err, &ae) {
		return true
	}
	var e *Error
	if errors.As(err, &e) && e.ID == IDAbortError {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// AbortConfig is the per-registration input to AbortPool.Register. The
// entry's key, used for duplicate pre-emption, is RequestID, else ID;
// when both are empty the pool generates one. Timeout, if positive,
// installs a timer-triggered abort. OnAbortedTimeout is invoked once
// when that timer fires and must not itself call back into the pool for
// the same key — the pool does not guard against that reentrancy. The
// pool never reads OnAborted: neither Abort nor duplicate pre-emption
// invokes it; Abort only invokes the callback passed to it as an
// argument.
type AbortConfig struct {
	RequestID        string
	ID               string
	Timeout          time.Duration
	OnAborted        func(key string)
	OnAbortedTimeout func(key string)
}

func (c AbortConfig) key() string {
	if c.RequestID != "" {
		return c.RequestID
	}
	return c.ID
}

type abortEntry struct {
	cancel context.CancelCauseFunc
	timer  *time.Timer
}

// AbortPool is the generalization of internal/resilience/semaphore.go's
// single-waiter cancellation into a keyed registry: registering the same
// key twice cancels the previous registration first, so at most one
// context is ever live per key. It is the Go expression of the source's
// AbortController-per-key pool, built on context.CancelCauseFunc in place
// of a signal/controller pair.
type AbortPool struct {
	name    string
	mu      sync.Mutex
	entries map[string]*abortEntry
	counter atomic.Int64
}

// NewAbortPool constructs an empty pool identified by name, used only to
// generate fallback keys ("<name>-<n>") when a registration supplies
// neither RequestID nor ID.
func NewAbortPool(name string) *AbortPool {
	return &AbortPool{name: name, entries: make(map[string]*abortEntry)}
}

// GenerateKey implements the three-step fallback: RequestID, then ID,
// then a pool-scoped monotonic counter.
func (p *AbortPool) GenerateKey(cfg AbortConfig) string {
	if k := cfg.key(); k != "" {
		return k
	}
	return fmt.Sprintf("%s-%d", p.name, p.counter.Add(1))
}

// Register creates a fresh cancellable context for cfg's key, aborting
// and replacing any existing entry for that key first (duplicate-key
// pre-emption, the pool's central invariant). The returned context is
// done when the entry is aborted, times out, or parent is done.
func (p *AbortPool) Register(parent context.Context, cfg AbortConfig) (context.Context, string) {
	key := p.GenerateKey(cfg)

	p.mu.Lock()
	if existing, ok := p.entries[key]; ok {
		p.abortLocked(key, existing, NewAbortError(key, 0, nil))
	}

	ctx, cancel := context.WithCancelCause(parent)
	entry := &abortEntry{cancel: cancel}

	if cfg.Timeout > 0 {
		entry.timer = time.AfterFunc(cfg.Timeout, func() {
			p.mu.Lock()
			current, ok := p.entries[key]
			if !ok || current != entry {
				p.mu.Unlock()
				return
			}
			delete(p.entries, key)
			p.mu.Unlock()
			cancel(NewAbortError(key, cfg.Timeout, nil))
			if cfg.OnAbortedTimeout != nil {
				cfg.OnAbortedTimeout(key)
			}
		})
	}

	p.entries[key] = entry
	p.mu.Unlock()

	return ctx, key
}

// abortLocked stops entry's timer, removes key's map entry, and cancels
// entry's context with cause. Callers must hold p.mu.
func (p *AbortPool) abortLocked(key string, entry *abortEntry, cause error) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(p.entries, key)
	entry.cancel(cause)
}

// Abort cancels the entry for key with an AbortError, invoking onAborted
// at most once, and reports whether an entry existed. A panicking
// onAborted callback propagates to the caller without rolling back the
// abort, matching the source's "throw does not roll back" contract.
func (p *AbortPool) Abort(key string, onAborted func(key string)) bool {
	p.mu.Lock()
	entry, ok := p.entries[key]
	if !ok {
		p.mu.Unlock()
		return false
	}
	p.abortLocked(key, entry, NewAbortError(key, 0, nil))
	p.mu.Unlock()

	if onAborted != nil {
		onAborted(key)
	}
	return true
}

// AbortAll aborts every live entry; the pool is empty afterwards.
func (p *AbortPool) AbortAll() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*abortEntry)
	p.mu.Unlock()

	for key, entry := range entries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		entry.cancel(NewAbortError(key, 0, nil))
	}
}

// Cleanup removes key's entry and stops its timer without firing the
// context, used after a call completes successfully.
func (p *AbortPool) Cleanup(key string) {
	p.mu.Lock()
	entry, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
	}
	p.mu.Unlock()
	if ok && entry.timer != nil {
		entry.timer.Stop()
	}
}

// RaceWithAbort runs fn and races it against ctx's cancellation. If ctx
// is nil it just runs fn. If ctx is already done, fn is never started
// and the context's cause is returned immediately.
func RaceWithAbort[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return zero, context.Cause(ctx)
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, context.Cause(ctx)
	}
}
