package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the collection root and re-syncs the
// index until ctx is cancelled. It calls cb (if non-nil) for every file the
// re-sync changed.
//
// Bursts of events are debounced into a single re-read of the collection.
// New directories created at runtime are added to the watch list. Dotfiles
// and paths matching the ignore patterns never trigger a re-sync. A
// collection that fails to read, typically a file caught mid-edit, is
// logged and retried on the next event.
func Watch(ctx context.Context, db *DB, root string, ignore []string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	skip := func(rel string) bool {
		return skipped(rel, ignore)
	}
	if err := addDirsRecursive(w, root, skip); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

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
			resync(db, root, ignore, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || skip(filepath.ToSlash(rel)) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, func(sub string) bool {
						return skip(filepath.ToSlash(filepath.Join(rel, sub)))
					}); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
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

func resync(db *DB, root string, ignore []string, logger *slog.Logger, cb EventCallback) {
	report, err := SyncDir(db, root, ignore, logger)
	if err != nil {
		logger.Warn("watcher: sync failed", slog.String("error", err.Error()))
		return
	}
	if !report.Changed() {
		return
	}
	logger.Info("watcher: reindexed",
		slog.Int("created", len(report.Created)),
		slog.Int("updated", len(report.Updated)),
		slog.Int("deleted", len(report.Deleted)))
	if cb == nil {
		return
	}
	for _, p := range report.Created {
		cb("created", p)
	}
	for _, p := range report.Updated {
		cb("updated", p)
	}
	for _, p := range report.Deleted {
		cb("deleted", p)
	}
}

// skipped reports whether a slash-separated path relative to the collection
// root is hidden or ignored.
func skipped(rel string, ignore []string) bool {
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	name := rel[strings.LastIndex(rel, "/")+1:]
	for _, p := range ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// leaving out directories skip reports for their path relative to root.
func addDirsRecursive(w *fsnotify.Watcher, root string, skip func(rel string) bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && skip(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
