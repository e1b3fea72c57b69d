package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/sitemapd/internal/logfields"
)

// Change kinds reported to an EventCallback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// EventCallback is called after a content file changed on disk (and, when an
// index is attached, after the index was updated).
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the content root and processes change
// events until ctx is cancelled. idx may be nil when the filesystem store
// serves queries directly; cb is then the only consumer of changes.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass against the index.
func Watch(ctx context.Context, idx *SQL, store *FS, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", logfields.Path(root))

	notify := func(kind, rel string) {
		if cb != nil {
			cb(kind, rel)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if idx != nil {
				if err := Sync(idx, store, logger); err != nil {
					logger.Warn("watcher: reconcile failed", logfields.Error(err))
				}
			}
			notify(ChangeUpdated, "")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed", logfields.Path(absPath), logfields.Error(addErr))
					}
					indexNewDir(idx, store, absPath, logger, notify)
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if store.CategoryOf(rel) == "" {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if idx != nil {
					data, readErr := store.Read(rel)
					if readErr != nil {
						logger.Warn("watcher: read failed", logfields.Path(rel), logfields.Error(readErr))
						continue
					}
					if idxErr := indexFile(idx, store, rel, data); idxErr != nil {
						logger.Warn("watcher: index failed", logfields.Path(rel), logfields.Error(idxErr))
						continue
					}
				}
				kind := ChangeUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = ChangeCreated
				}
				logger.Debug("watcher: changed", logfields.Path(rel), logfields.Event(kind))
				notify(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				if idx != nil {
					if delErr := idx.DeleteEntry(rel); delErr != nil {
						logger.Warn("watcher: delete failed", logfields.Path(rel), logfields.Error(delErr))
						continue
					}
				}
				logger.Debug("watcher: deleted", logfields.Path(rel))
				notify(ChangeDeleted, rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path arrives as Create.
				if idx != nil {
					if delErr := idx.DeleteEntry(rel); delErr != nil {
						logger.Warn("watcher: rename delete failed", logfields.Path(rel), logfields.Error(delErr))
					}
				}
				notify(ChangeDeleted, rel)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", logfields.Error(watchErr))
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(idx *SQL, store *FS, dirPath string, logger *slog.Logger, notify func(kind, rel string)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(store.Root(), path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if store.CategoryOf(rel) == "" {
			return nil
		}
		if idx != nil {
			data, readErr := store.Read(rel)
			if readErr != nil {
				return nil
			}
			if idxErr := indexFile(idx, store, rel, data); idxErr != nil {
				return nil
			}
		}
		logger.Debug("watcher: indexed from new dir", logfields.Path(rel))
		notify(ChangeCreated, rel)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
