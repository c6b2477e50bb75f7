// Package watch provides directory watching for schema and document changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before the handler runs.
const DefaultDebounce = 500 * time.Millisecond

// Event lists the files that changed during one debounce window, sorted.
type Event struct {
	Paths []string
}

// Has reports whether any changed path has the given extension.
func (e Event) Has(ext string) bool {
	for _, p := range e.Paths {
		if strings.EqualFold(filepath.Ext(p), ext) {
			return true
		}
	}
	return false
}

// Watcher watches a set of directories for changes
type Watcher struct {
	dirs     []string
	watching map[string]bool
	exts     []string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions restricts events to files with one of exts.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = exts
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher over dirs. Duplicate directories are watched once.
// Handlers may call Add to extend the set while Run is active.
func New(dirs []string, opts ...Option) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		debounce: DefaultDebounce,
		watching: make(map[string]bool),
		logger:   slog.Default(),
		watcher:  watcher,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return w, nil
}

// Add starts watching dir. Directories already watched are skipped.
// Subdirectories are not watched unless added themselves.
func (w *Watcher) Add(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if w.watching[absPath] {
		return nil
	}
	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", absPath, err)
	}
	w.watching[absPath] = true
	w.dirs = append(w.dirs, absPath)
	w.logger.Debug("watching directory", "dir", absPath)
	return nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Run calls fn once per debounced batch of changes until ctx is done. Handler
// errors are logged and do not stop the watch. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context, fn func(Event) error) error {
	defer w.watcher.Close()

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	var debounceCh <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = true
			debounceTimer.Reset(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			ev := Event{Paths: make([]string, 0, len(pending))}
			for p := range pending {
				ev.Paths = append(ev.Paths, p)
			}
			sort.Strings(ev.Paths)
			clear(pending)
			if err := fn(ev); err != nil {
				w.logger.Error("watch handler failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			debounceTimer.Stop()
			return nil
		}
	}
}

// Close stops watching without running.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	ext := filepath.Ext(event.Name)
	for _, want := range w.exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
