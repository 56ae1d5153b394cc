// Package watcher re-runs classification when extension source trees change.
//
// The Watcher registers every directory under the host's extension roots
// with fsnotify, follows newly created directories, and coalesces bursts of
// events (an installer unpacking hundreds of files, an editor's save dance)
// into a single callback after a quiet period.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Dirs(roots), func() {
//		listing, err := engine.Run(ctx)
//		...
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/addonsweep/internal/resolver"
)

// DefaultDebounce is the quiet period before a change triggers a callback.
const DefaultDebounce = 500 * time.Millisecond

// Dirs returns the directories extensions are installed under.
func Dirs(r resolver.Roots) []string {
	var dirs []string
	for _, scope := range []string{r.Site, r.Admin} {
		for _, sub := range []string{"components", "modules", "templates"} {
			dirs = append(dirs, filepath.Join(scope, sub))
		}
	}
	return append(dirs, r.Plugins, r.Libraries)
}

// Watcher calls onChange after filesystem activity under its roots settles.
type Watcher struct {
	fs       *fsnotify.Watcher
	roots    []string
	onChange func()
	debounce time.Duration
	logger   *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a Watcher for roots. Roots that do not exist are skipped at
// Start; at least one must exist.
func New(roots []string, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("onChange cannot be nil")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		fs:       fw,
		roots:    roots,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// SetLogger sets the diagnostic logger. Call before Start.
func (w *Watcher) SetLogger(l *slog.Logger) {
	w.logger = l
}

// Start registers the roots and begins processing events.
func (w *Watcher) Start() error {
	watched := 0
	for _, root := range w.roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			w.logger.Debug("skipping missing root", "root", root)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("none of the extension roots exist: %v", w.roots)
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts event processing. A pending callback is dropped.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
					}
				}
			}
			w.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.onChange()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// addRecursive watches dir and every directory below it. Unreadable
// subdirectories are skipped.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
