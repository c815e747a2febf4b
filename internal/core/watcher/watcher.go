// # internal/core/watcher/watcher.go
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"ngreflect/internal/shared/observability"
	"ngreflect/internal/shared/util"
)

// Options tune a Watcher. Exclude patterns are matched against both the
// base name and the slash path relative to the watched root.
type Options struct {
	Debounce    time.Duration
	MinInterval time.Duration
	Exclude     []string
	Logger      *slog.Logger
}

// Watcher reports batches of changed bundle files. Bursts are collapsed by
// the debounce window and successive batches are spaced by MinInterval.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	exclude    []glob.Glob
	throttle   *util.Limiter
	logger     *slog.Logger
	onChange   func([]string)
	callbackMu sync.Mutex

	roots     []string
	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
	reserved  bool
	closed    bool
}

func NewWatcher(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiled := make([]glob.Glob, 0, len(opts.Exclude))
	for _, pattern := range opts.Exclude {
		g, err := glob.Compile(util.SlashPath(pattern), '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		fsWatcher: fsw,
		debounce:  opts.Debounce,
		exclude:   compiled,
		throttle:  util.NewLimiter(opts.MinInterval, 1),
		logger:    logger,
		onChange:  onChange,
		pending:   make(map[string]bool),
	}, nil
}

// IsBundleFile reports whether a change to path can alter analysis output.
func IsBundleFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if base == "package.json" {
		return true
	}
	for _, ext := range []string{".js", ".mjs", ".cjs", ".d.ts"} {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.roots = append(w.roots, abs)
		if err := w.watchRecursive(abs); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.excluded(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !IsBundleFile(event.Name) || w.excluded(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if w.closed {
		return
	}

	w.pending[path] = true
	if w.reserved {
		// a throttled flush is already scheduled and will pick this up
		return
	}
	w.resetTimer(w.debounce)
}

// resetTimer must be called with pendingMu held.
func (w *Watcher) resetTimer(d time.Duration) {
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(d, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	if !w.reserved {
		if delay := w.throttle.Delay(); delay > 0 {
			w.reserved = true
			w.resetTimer(delay)
			w.pendingMu.Unlock()
			return
		}
	}
	w.reserved = false
	paths := util.SortedKeys(w.pending)
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	candidates := []string{filepath.Base(path)}
	for _, root := range w.roots {
		if util.HasPathPrefix(filepath.ToSlash(path), filepath.ToSlash(root)) {
			candidates = append(candidates, util.RelSlash(root, path))
		}
	}
	for _, g := range w.exclude {
		for _, c := range candidates {
			if c != "" && g.Match(c) {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if IsBundleFile(path) && !w.excluded(path) {
			w.scheduleChange(path)
		}
		return nil
	})
}
