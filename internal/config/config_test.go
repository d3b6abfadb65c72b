package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("default max retries = %d, want 3", cfg.Retry.MaxRetries)
	}
	if cfg.Abort.DefaultTimeout != 30*time.Second {
		t.Errorf("default abort timeout = %v, want 30s", cfg.Abort.DefaultTimeout)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("default cache backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestLoadFromFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executor.yaml")
	if err := os.WriteFile(path, []byte("retry:\n  max_retries: 7\n"), 0o600); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("max retries = %d, want 7", cfg.Retry.MaxRetries)
	}
	if cfg.Abort.DefaultTimeout != 30*time.Second {
		t.Errorf("unset keys should keep their default, got %v", cfg.Abort.DefaultTimeout)
	}
}

func TestLoadFromFileMissingPath(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
