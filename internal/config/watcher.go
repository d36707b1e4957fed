// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow collapses the editor write/rename bursts a single save
// produces into one reload.
const debounceWindow = 200 * time.Millisecond

// Watcher reloads the configuration file when it changes and hands each
// successfully reloaded Config to the registered callback.
//
// Reload failures are logged and the previous configuration stays in
// effect. The watcher is for settings that are safe to change at runtime
// (the W3C back-compat flag, log level); the daemon does not re-bind
// listeners on reload.
type Watcher struct {
	path     string
	logger   *zap.Logger
	onChange func(*Config)

	watcher *fsnotify.Watcher
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher creates a watcher for the given config file. The parent
// directory is watched so atomic save strategies (write to temp file,
// rename over) are seen.
func NewWatcher(path string, onChange func(*Config), logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create filesystem watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch config directory %s: %w", dir, err)
	}

	w := &Watcher{
		path:     path,
		logger:   logger.Named("config"),
		onChange: onChange,
		watcher:  fw,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go w.processEvents()
	return w, nil
}

// Stop ends watching and waits for the event goroutine to exit.
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
	w.watcher.Close()
}

// processEvents is the watcher goroutine: it debounces change events for
// the config file and reloads on each settled burst.
func (w *Watcher) processEvents() {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", zap.Error(err))

		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadWithFile(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous configuration",
			zap.String("path", w.path),
			zap.Error(err))
		return
	}

	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	w.onChange(cfg)
}
