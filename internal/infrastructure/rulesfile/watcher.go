// Package rulesfile reloads YAML rule files when they change on disk.
package rulesfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher calls Reload whenever the watched file is written, created or renamed into place.
// Editors that replace files atomically are covered by watching the parent directory.
type Watcher struct {
	Path     string
	Name     string
	Reload   func(path string) error
	Debounce time.Duration
	Logger   *slog.Logger
}

func (w *Watcher) Run(ctx context.Context) error {
	if w.Reload == nil {
		return fmt.Errorf("rulesfile: reload callback is nil")
	}
	target, err := filepath.Abs(w.Path)
	if err != nil {
		return fmt.Errorf("resolve rules path: %w", err)
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	logger.Info("rules_watch_started", "rules", w.Name, "path", target)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.Reload(target); err != nil {
				logger.Error("rules_reload_failed", "rules", w.Name, "path", target, "error", err)
				continue
			}
			logger.Info("rules_reloaded", "rules", w.Name, "path", target)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("rules_watch_error", "rules", w.Name, "error", err)
		}
	}
}
