package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager watches a configuration file and swaps in new versions
// atomically. Readers call Get and never block on a reload.
type Manager struct {
	path    string
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// onReload callbacks run after a successful swap.
	mu        sync.Mutex
	onReload  []func(*Config)
	debounce  time.Duration
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewManager loads the file and starts watching it for changes.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory, not the file. Editors and orchestrators often
	// replace the file via rename, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	m := &Manager{
		path:      path,
		watcher:   watcher,
		logger:    logger,
		debounce:  500 * time.Millisecond,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	m.current.Store(cfg)

	go m.watch()
	return m, nil
}

// Get returns the current configuration snapshot.
func (m *Manager) Get() *Config {
	return m.current.Load()
}

// OnReload registers a callback invoked after each successful reload.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

// Close stops the watcher.
func (m *Manager) Close() error {
	close(m.stopCh)
	err := m.watcher.Close()
	<-m.stoppedCh
	return err
}

func (m *Manager) watch() {
	defer close(m.stoppedCh)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-m.stopCh:
			return

		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce bursts of events from a single save.
			if timer == nil {
				timer = time.NewTimer(m.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(m.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			m.reload()

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("config watcher error", "error", err)
		}
	}
}

func (m *Manager) reload() {
	cfg, err := Load(m.path)
	if err != nil {
		// Keep serving the last good config.
		m.logger.Error("config reload failed, keeping previous version",
			"path", m.path,
			"error", err,
		)
		return
	}

	m.current.Store(cfg)
	m.logger.Info("config reloaded", "path", m.path)

	m.mu.Lock()
	callbacks := make([]func(*Config), len(m.onReload))
	copy(callbacks, m.onReload)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}
