package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sophialabs/wirecheck/internal/infrastructure/ports"
)

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Roots      []string
	Extensions []string
	Exclude    []string
	Debounce   time.Duration
}

// Watcher watches client and server source trees and calls onChange once per
// debounced burst of edits. onChange receives the changed files, sorted.
type Watcher struct {
	opts     WatchOptions
	exts     map[string]bool
	excluded map[string]bool
	logger   ports.Logger
	watcher  *fsnotify.Watcher
	onChange func(changed []string)
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher over every existing root.
func NewWatcher(opts WatchOptions, logger ports.Logger, onChange func(changed []string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		opts:     opts,
		exts:     make(map[string]bool, len(opts.Extensions)),
		excluded: make(map[string]bool, len(opts.Exclude)),
		logger:   logger,
		watcher:  fsWatcher,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, e := range opts.Extensions {
		w.exts[strings.ToLower(e)] = true
	}
	for _, d := range opts.Exclude {
		w.excluded[d] = true
	}

	for _, root := range opts.Roots {
		if !isDir(root) {
			logger.Warn("not watching missing root", "root", root)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			_ = fsWatcher.Close()
			return nil, err
		}
	}

	return w, nil
}

// Start begins watching for file changes in a goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop terminates the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.watcher.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if !hasExtension(event.Name, w.exts) {
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.excluded[filepath.Base(event.Name)] {
						_ = w.addRecursive(event.Name)
					}
				}
				continue
			}
			if w.inExcluded(event.Name) {
				continue
			}

			w.logger.Debug("source change detected", "file", event.Name, "op", event.Op.String())
			pending[event.Name] = true

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.opts.Debounce)
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-timerC:
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			clear(pending)
			sort.Strings(changed)
			w.logger.Info("re-running audit due to source changes", "files", len(changed))
			w.onChange(changed)
			timerC = nil
		}
	}
}

func (w *Watcher) inExcluded(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if w.excluded[part] {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && w.excluded[d.Name()] {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}
