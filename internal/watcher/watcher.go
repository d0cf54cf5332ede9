// Package watcher reloads the sheet when its backing file is edited outside
// the running process.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of write events.
const DefaultDebounce = 200 * time.Millisecond

// Reloader re-reads the stored document.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Watch watches the directory holding file and calls r.Reload once writes
// to file have been quiet for debounce. The directory is watched rather
// than the file because atomic saves replace the file by rename. Watch
// blocks until ctx is cancelled.
func Watch(ctx context.Context, file string, r Reloader, logger *slog.Logger, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	file = filepath.Clean(file)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(file)); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("file", file))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			changed, err := r.Reload(ctx)
			if err != nil {
				logger.Warn("watcher: reload failed", slog.String("file", file), slog.String("error", err.Error()))
				continue
			}
			if changed {
				logger.Debug("watcher: reloaded", slog.String("file", file))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
