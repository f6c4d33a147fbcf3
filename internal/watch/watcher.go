// Package watch re-runs a sync whenever note files change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
)

const DefaultDebounce = 750 * time.Millisecond

// Handler receives the courses whose files changed, sorted, once a burst of
// events has settled.
type Handler func(changed []string)

// Watcher observes course directories and coalesces bursts of file events
// into a single handler call. Editors tend to fire several events per save,
// so changes are debounced before the handler runs.
type Watcher struct {
	logger   *logger.Logger
	debounce time.Duration
}

func New(log *logger.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		logger:   log,
		debounce: debounce,
	}
}

// Watch blocks until ctx is cancelled, invoking handle after each settled
// burst of changes under the given courses. Missing course directories are
// skipped with a warning; if none can be watched, Watch fails.
//
// The handler runs on the watch loop itself, so a sync in progress delays
// further event processing instead of racing it.
func (w *Watcher) Watch(ctx context.Context, root string, courses []string, handle Handler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fsw.Close()

	watched := 0
	for _, course := range courses {
		dir := filepath.Join(root, course)
		if _, err := os.Stat(dir); err != nil {
			w.logger.Warn("missing course directory: %s", dir)
			continue
		}
		if err := addDirsRecursive(fsw, dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}

	if watched == 0 {
		return fmt.Errorf("no course directories to watch under %s", root)
	}

	w.logger.Info("Watching for changes in %s (%d course(s))", root, watched)

	changed := make(map[string]struct{})

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(w.debounce)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			w.logger.Info("Watcher stopped")
			return nil

		case <-settleCh:
			if len(changed) == 0 {
				continue
			}
			courses := make([]string, 0, len(changed))
			for course := range changed {
				courses = append(courses, course)
			}
			sort.Strings(courses)
			changed = make(map[string]struct{})

			w.logger.Info("Changes settled in: %s", strings.Join(courses, ", "))
			handle(courses)

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || strings.HasPrefix(rel, "..") {
				continue
			}

			// New directories join the watch list so files created inside
			// them keep triggering syncs.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fsw, ev.Name); addErr != nil {
						w.logger.Warn("failed to watch new directory %s: %v", ev.Name, addErr)
					} else {
						w.logger.Debug("watching new directory: %s", ev.Name)
					}
					changed[courseOf(rel)] = struct{}{}
					scheduleSettle()
					continue
				}
			}

			if filepath.Ext(ev.Name) != ".md" {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug("change detected: %s (%s)", rel, ev.Op)
			changed[courseOf(rel)] = struct{}{}
			scheduleSettle()

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error: %v", watchErr)
		}
	}
}

// courseOf maps a root-relative path to its course, the first path segment.
func courseOf(rel string) string {
	parts := strings.SplitN(filepath.ToSlash(rel), "/", 2)
	return parts[0]
}

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
