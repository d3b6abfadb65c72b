package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// snapshot bundles a loaded ExecutorDefaults with the metadata Status
// reports, so one atomic swap keeps them consistent with each other —
// no separate checksum/loadedAt atomics that could observe a torn state
// between a Reload and a concurrent Status call.
type snapshot struct {
	defaults *ExecutorDefaults
	checksum string
	loadedAt time.Time
}

// Manager hot-reloads an ExecutorDefaults file behind an atomic pointer
// so Get() never blocks a concurrent Reload, and optionally watches the
// file via fsnotify for changes written from outside the process.
type Manager struct {
	current atomic.Pointer[snapshot]

	path        string
	logger      *slog.Logger
	watcher     *fsnotify.Watcher
	subscribers []func(*ExecutorDefaults)
	reloads     atomic.Uint64
}

// NewManager loads path once, failing if it can't be read or parsed.
// Call Watch to start hot-reloading on subsequent file changes.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{path: path, logger: logger}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the currently active defaults. Safe for concurrent use.
func (m *Manager) Get() *ExecutorDefaults {
	return m.current.Load().defaults
}

// OnChange registers fn to run with the new defaults after every
// successful reload, whether triggered by Reload or the file watcher.
func (m *Manager) OnChange(fn func(*ExecutorDefaults)) {
	m.subscribers = append(m.subscribers, fn)
}

// ManagerStatus reports metadata about the currently active snapshot.
type ManagerStatus struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	LoadedAt    time.Time `json:"loaded_at"`
	ReloadCount uint64    `json:"reload_count"`
}

// Status returns a point-in-time view of ManagerStatus.
func (m *Manager) Status() ManagerStatus {
	snap := m.current.Load()
	return ManagerStatus{
		Path:        m.path,
		Checksum:    snap.checksum,
		LoadedAt:    snap.loadedAt,
		ReloadCount: m.reloads.Load(),
	}
}

// Watch installs an fsnotify watcher on the config file and reloads on
// every debounced write/create event until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: start watcher: %w", err)
	}
	if err := watcher.Add(m.path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config: watch %s: %w", m.path, err)
	}
	m.watcher = watcher

	go m.watchLoop(ctx, watcher)
	return nil
}

// watchLoop debounces bursts of write events (editors often emit
// several for one save) before reloading, and exits once ctx is done or
// the watcher's channels close.
func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	const debounce = 500 * time.Millisecond
	var pending *time.Timer

	stop := func() {
		if pending != nil {
			pending.Stop()
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			stop()
			pending = time.AfterFunc(debounce, func() {
				if err := m.Reload(); err != nil {
					m.logger.Error("config: reload failed, keeping current defaults", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config: watcher error", "error", err)
		}
	}
}

// Reload re-reads the file from disk, swaps the active snapshot, and
// notifies every OnChange subscriber with the new defaults.
func (m *Manager) Reload() error {
	if err := m.load(); err != nil {
		return err
	}
	m.logger.Info("config: executor defaults reloaded", "path", m.path)

	current := m.Get()
	for _, fn := range m.subscribers {
		fn(current)
	}
	return nil
}

// Close stops the file watcher, if Watch was ever called.
func (m *Manager) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// load reads and parses the file, then swaps it into current, stamping
// a fresh checksum/loadedAt and bumping the reload counter.
func (m *Manager) load() error {
	cfg, err := LoadFromFile(m.path)
	if err != nil {
		return err
	}

	encoded, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: checksum %s: %w", m.path, err)
	}
	digest := sha256.Sum256(encoded)

	m.current.Store(&snapshot{
		defaults: cfg,
		checksum: hex.EncodeToString(digest[:]),
		loadedAt: time.Now().UTC(),
	})
	m.reloads.Add(1)
	return nil
}
