// Package executor is a pluggable task-execution engine. It drives a
// single user-supplied unit of work through a configurable lifecycle of
// plugin hooks, with first-class support for cancellation, timeouts, and
// retry.
package executor

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Stable error ids. Routing on id, never on Message text.
const (
	IDUnknownSyncError  = "UNKNOWN_SYNC_ERROR"
	IDUnknownAsyncError = "UNKNOWN_ASYNC_ERROR"
	IDAbortError        = "ABORT_ERROR"
)

// Configuration errors. Raised synchronously, never wrapped in an
// ExecutorError — they indicate a programmer mistake, not a task failure.
var (
	ErrNilPlugin       = errors.New("executor: plugin must not be nil")
	ErrDuplicatePlugin = errors.New("executor: plugin already registered")
	ErrPipelineClosed  = errors.New("executor: pipeline is closed")
	ErrPluginNotFound  = errors.New("executor: plugin not found")
)

// Error is the framework's normalized error type. Two errors with the
// same ID are semantically equivalent for routing purposes; the ID never
// changes after construction.
type Error struct {
	ID      string
	Message string
	Cause   error
	// name is the concrete subtype name reported by Name(); it falls
	// back to "ExecutorError" for the base type.
	name string
}

// NewError wraps cause into a new *Error with the given id, even when
// cause is already an *Error — callers that want pass-through behavior
// for an existing *Error should use Wrap instead.
func NewError(id string, cause error) *Error {
	e := &Error{ID: id, Cause: cause, name: "ExecutorError"}
	if cause != nil {
		e.Message = cause.Error()
	} else {
		e.Message = id
	}
	return e
}

// NewErrorFromValue builds an *Error from an arbitrary "any throwable"
// value, matching the source contract that error/cause may be any value:
// an error's Error() string, a plain string, or the id itself.
func NewErrorFromValue(id string, cause any) *Error {
	switch v := cause.(type) {
	case nil:
		return &Error{ID: id, Message: id, name: "ExecutorError"}
	case error:
		return NewError(id, v)
	case string:
		return &Error{ID: id, Message: v, Cause: errors.New(v), name: "ExecutorError"}
	default:
		return &Error{ID: id, Message: id, name: "ExecutorError"}
	}
}

// Wrap normalizes an arbitrary error into an *Error: an existing *Error
// (or anything satisfying errors.As into one) passes through unchanged,
// everything else is wrapped with the given fallback id.
func Wrap(err error, fallbackID string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(fallbackID, err)
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.ID, e.Message)
}

// Unwrap exposes the cause chain to errors.Is/errors.As/errors.Unwrap.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Name returns the concrete subtype name (e.g. "ExecutorError",
// "AbortError"), falling back to the base constant.
func (e *Error) Name() string {
	if e == nil || e.name == "" {
		return "ExecutorError"
	}
	return e.name
}

// Is lets errors.Is(err, target) match on ID alone, so callers can do
// errors.Is(err, executor.NewError(executor.IDAbortError, nil)) without
// caring about Message/Cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.ID == t.ID
}

type errorJSON struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// MarshalJSON renders the error for structured logging payloads.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := errorJSON{ID: e.ID, Message: e.Message}
	if e.Cause != nil && e.Cause.Error() != e.Message {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}
