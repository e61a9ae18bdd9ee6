package prompt

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a Library hot-reloaded from a file on disk. Readers call
// Get and always see a complete, validated library.
type Watcher struct {
	path    string
	current atomic.Pointer[Library]
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	stopCh  chan struct{}
}

// Watch loads the library and reloads it whenever the file changes. An
// invalid rewrite keeps the previous version in place.
func Watch(path string, logger *slog.Logger) (*Watcher, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch prompt dir: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
	w.current.Store(lib)

	go w.loop()
	return w, nil
}

// Get returns the current library snapshot.
func (w *Watcher) Get() *Library {
	return w.current.Load()
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stopCh)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(500 * time.Millisecond)
				timerCh = timer.C
			} else {
				timer.Reset(500 * time.Millisecond)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			lib, err := LoadLibrary(w.path)
			if err != nil {
				w.logger.Error("prompt library reload failed, keeping previous version",
					"path", w.path,
					"error", err,
				)
				continue
			}
			w.current.Store(lib)
			w.logger.Info("prompt library reloaded", "path", w.path, "prompts", len(lib.Prompts))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("prompt watcher error", "error", err)
		}
	}
}
