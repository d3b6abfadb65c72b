package executor

import (
	"log/slog"
)

// Logger is the ambient logging surface the executor and builtin plugins
// depend on. It is satisfied directly by *slog.Logger, so callers can
// pass slog.Default() or a configured logger without an adapter.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards everything; used when no logger is configured so
// call sites never need a nil check.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

var _ Logger = noopLogger{}
var _ Logger = (*slog.Logger)(nil)
