// Package watcher reports debounced note changes in a vault directory.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/kenaz-focus/internal/storage"
)

// DefaultDebounce is used when Watch is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Change is one vault-relative note path with what happened to it.
// Kind is one of "created", "updated", "deleted".
type Change struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Callback receives the changes collected during one quiet period.
type Callback func(changes []Change)

// Watch starts an fsnotify watcher on root and calls cb once per burst of
// note changes, after debounce has passed without new events. It blocks
// until ctx is cancelled.
//
// New directories created at runtime are added to the watch list. A rename
// reports the old path as deleted; the new path arrives as its own create.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root), slog.Duration("debounce", debounce))

	pending := make(map[string]string)
	var order []string
	record := func(kind, rel string) {
		if _, ok := pending[rel]; !ok {
			order = append(order, rel)
		}
		// A create followed by writes stays a create.
		if prev := pending[rel]; prev == "created" && kind == "updated" {
			kind = prev
		}
		pending[rel] = kind
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			if len(order) == 0 {
				continue
			}
			batch := make([]Change, 0, len(order))
			for _, p := range order {
				batch = append(batch, Change{Kind: pending[p], Path: p})
			}
			clear(pending)
			order = order[:0]
			logger.Debug("watcher: flush", slog.Int("changes", len(batch)))
			cb(batch)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if changed := handle(w, root, ev, logger, record); changed {
				timer.Reset(debounce)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handle translates one fsnotify event into recorded changes and reports
// whether anything was recorded.
func handle(w *fsnotify.Watcher, root string, ev fsnotify.Event, logger *slog.Logger, record func(kind, rel string)) bool {
	absPath := ev.Name
	name := filepath.Base(absPath)
	if storage.IsHidden(name) {
		return false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(w, absPath); addErr != nil {
				logger.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", addErr.Error()))
			}
			notes := notesIn(root, absPath)
			for _, rel := range notes {
				record("created", rel)
			}
			return len(notes) > 0
		}
	}

	if !storage.IsNote(name) {
		return false
	}
	rel, relErr := filepath.Rel(root, absPath)
	if relErr != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&fsnotify.Create != 0:
		record("created", rel)
	case ev.Op&fsnotify.Write != 0:
		record("updated", rel)
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		record("deleted", rel)
	default:
		return false
	}
	return true
}

// notesIn lists the notes already present in a newly created directory.
func notesIn(root, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && storage.IsHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !storage.IsNote(d.Name()) {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	slices.Sort(out)
	return out
}

// addDirsRecursive adds root and its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && storage.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
