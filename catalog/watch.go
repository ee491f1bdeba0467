package catalog

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a Watcher waits after the last change event
// before reloading. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a catalog file into a Store whenever the file changes.
//
// The parent directory is watched rather than the file itself so that
// editors which save by renaming a temporary file are still noticed.
type Watcher struct {
	path     string
	store    *Store
	filter   *Filter
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloaded func(error)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithFilter applies f to every reloaded catalog.
func WithFilter(f *Filter) WatcherOption {
	return func(w *Watcher) { w.filter = f }
}

// OnReload registers a callback run after every reload attempt with its error.
func OnReload(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.reloaded = fn }
}

// NewWatcher creates a watcher for the catalog file at path. Call Run to start it.
func NewWatcher(path string, store *Store, logger *zap.Logger, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		store:    store,
		logger:   logger,
		watcher:  fw,
		debounce: DefaultDebounce,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Reload reads the file once and replaces the store contents. On error the
// store keeps its previous catalog.
func (w *Watcher) Reload() error {
	dbs, err := LoadFile(w.path)
	if err == nil {
		dbs, err = w.filter.Apply(dbs)
	}

	if err != nil {
		w.logger.Warn("catalog reload failed", zap.String("path", w.path), zap.Error(err))
	} else {
		w.store.Set(dbs)
		w.logger.Info("catalog reloaded", zap.String("path", w.path), zap.Int("databases", len(dbs)))
	}

	if w.reloaded != nil {
		w.reloaded(err)
	}

	return err
}

// Run watches until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	err := w.watcher.Add(filepath.Dir(w.path))
	if err != nil {
		return err
	}

	w.logger.Debug("watching catalog", zap.String("path", w.path))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}

			pending = timer.C

		case <-pending:
			pending = nil
			_ = w.Reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("catalog watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
