package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/chiaro/engine/core"
)

// Watcher re-parses the config file whenever it changes on disk and hands
// the result to the reload callback. The callback runs on the watcher
// goroutine; receivers hand it off to their own loop (the engine posts a
// reload event to the frame thread).
type Watcher struct {
	path     string
	onReload func(*Config)

	fsnotify *fsnotify.Watcher
	done     chan struct{}
}

func NewWatcher(path string, onReload func(*Config)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	return &Watcher{
		path:     path,
		onReload: onReload,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched rather than the
// file itself because editors often replace files via rename+create.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsnotify.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go w.run()
	return nil
}

func (w *Watcher) run() {
	base := filepath.Base(w.path)
	for {
		select {
		case e := <-w.fsnotify.Events:
			if filepath.Base(e.Name) != base {
				continue
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogWarn("config reload skipped: %v", err)
				continue
			}
			core.LogInfo("config reloaded from %s", w.path)
			w.onReload(cfg)

		case e := <-w.fsnotify.Errors:
			core.LogError("config watcher: %v", e)

		case <-w.done:
			w.fsnotify.Close()
			return
		}
	}
}

// Close stops the watcher goroutine.
func (w *Watcher) Close() {
	close(w.done)
}
