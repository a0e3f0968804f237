package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/namohub/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is "replaced"; id is empty because the whole collection changed.
type EventCallback func(kind string, id string)

const debounce = 150 * time.Millisecond

// Watch starts an fsnotify watcher on the directory holding the blob file
// and re-syncs the index whenever the blob changes on disk, until ctx is
// cancelled. Writes made through the service already rebuilt the index, so
// Sync finds a matching checksum and cb is not called for them.
//
// The directory is watched rather than the file because atomic writes
// replace the file by rename, which drops a file-level watch.
func Watch(ctx context.Context, db *DB, store storage.Provider, blobPath string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(blobPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
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

		case <-timerCh:
			changed, syncErr := Sync(db, store, logger)
			if syncErr != nil {
				logger.Warn("watcher: sync failed", slog.String("error", syncErr.Error()))
				continue
			}
			if changed {
				logger.Debug("watcher: reindexed", slog.String("path", abs))
				if cb != nil {
					cb("replaced", "")
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
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
