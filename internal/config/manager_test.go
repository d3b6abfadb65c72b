package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "executor.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerStatus(t *testing.T) {
	path := writeConfigFile(t, "retry:\n  max_retries: 5\n")
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	status := mgr.Status()
	if status.Path != path {
		t.Fatalf("Status().Path = %q, want %q", status.Path, path)
	}
	if status.Checksum == "" {
		t.Fatal("Status().Checksum is empty")
	}
	if status.LoadedAt.IsZero() {
		t.Fatal("Status().LoadedAt is zero")
	}
	if status.ReloadCount == 0 {
		t.Fatal("Status().ReloadCount should be > 0")
	}
}

func TestManagerReload(t *testing.T) {
	path := writeConfigFile(t, "retry:\n  max_retries: 5\n")
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if got := mgr.Get().Retry.MaxRetries; got != 5 {
		t.Fatalf("initial max retries = %d, want 5", got)
	}

	if err := os.WriteFile(path, []byte("retry:\n  max_retries: 9\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config fixture: %v", err)
	}

	var notified *ExecutorDefaults
	mgr.OnChange(func(cfg *ExecutorDefaults) { notified = cfg })

	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := mgr.Get().Retry.MaxRetries; got != 9 {
		t.Fatalf("reloaded max retries = %d, want 9", got)
	}
	if notified == nil || notified.Retry.MaxRetries != 9 {
		t.Fatalf("expected OnChange callback to observe the reloaded config")
	}
}

func TestManagerWatchPicksUpFileChanges(t *testing.T) {
	path := writeConfigFile(t, "retry:\n  max_retries: 1\n")
	mgr, err := NewManager(path, discardLogger())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	done := make(chan struct{}, 1)
	mgr.OnChange(func(*ExecutorDefaults) { done <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Watch(ctx); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("retry:\n  max_retries: 2\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config fixture: %v", err)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the watcher to pick up the file change")
	}
	if got := mgr.Get().Retry.MaxRetries; got != 2 {
		t.Fatalf("max retries after watch reload = %d, want 2", got)
	}
}
