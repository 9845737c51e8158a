package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher watches a config file for changes and makes the most recently
// reloaded Config available via TakePending. Grounded on
// engine/config/runtime.go's RuntimeConfigManager: an fsnotify.Watcher
// feeding a background goroutine, with the same "failed to create file
// watcher: %w" wrapping style.
//
// Reload is deliberately pull-based rather than push-based: the run loop
// calls TakePending between Coordinator.Step calls, never while a bag is
// mid-processing, so a hot-reloaded view definition never observes
// half-applied transition state.
type Watcher struct {
	w    *fsnotify.Watcher
	path string
	log  logrus.FieldLogger

	mu      sync.Mutex
	pending *Config
}

// NewWatcher starts watching path for writes, reloading and strictly
// re-parsing it on every change.
func NewWatcher(path string, log logrus.FieldLogger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	watcher := &Watcher{w: w, path: path, log: log}
	go watcher.loop()
	return watcher, nil
}

func (wch *Watcher) loop() {
	for {
		select {
		case ev, ok := <-wch.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(wch.path)
			if err != nil {
				wch.log.WithField("path", wch.path).Warnf("reload failed, keeping previous config: %v", err)
				continue
			}
			wch.mu.Lock()
			wch.pending = cfg
			wch.mu.Unlock()
			wch.log.WithField("path", wch.path).Info("config reloaded")
		case err, ok := <-wch.w.Errors:
			if !ok {
				return
			}
			wch.log.Warnf("watcher error: %v", err)
		}
	}
}

// TakePending returns and clears the most recently reloaded Config, or nil
// if the file hasn't changed since the last call.
func (wch *Watcher) TakePending() *Config {
	wch.mu.Lock()
	defer wch.mu.Unlock()
	cfg := wch.pending
	wch.pending = nil
	return cfg
}

// Close stops watching.
func (wch *Watcher) Close() error {
	return wch.w.Close()
}
