package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ownWriteWindow is how close to our own Save an fs event must be to be
// attributed to this process rather than an external writer. Atomic saves
// surface as Create/Rename events on the snapshot path.
const ownWriteWindow = 2 * time.Second

// Watch observes the snapshot file for modifications made by another process
// and calls cb once per external change burst (events are debounced). The
// store is the single-writer owner of the file; this watcher exists only so
// the presentation layer can warn the user when that assumption is violated.
// It blocks until ctx is cancelled.
func Watch(ctx context.Context, store *JSONStore, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory, not the file: atomic renames replace the inode.
	snapshotPath := store.Path()
	if err := w.Add(filepath.Dir(snapshotPath)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", snapshotPath))

	// Debounce bursts (editors and atomic replaces fire several events).
	var debounce *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			fire = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			if time.Since(store.LastSave()) < ownWriteWindow {
				logger.Debug("watcher: ignoring own write")
				continue
			}
			logger.Warn("watcher: snapshot changed by another process",
				slog.String("path", snapshotPath))
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != snapshotPath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
