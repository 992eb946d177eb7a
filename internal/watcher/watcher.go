// Package watcher reloads a file when it changes on disk, using fsnotify with debouncing.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// FileWatcher calls onChange after the watched file is written, created or
// replaced. It watches the parent directory so editors that save by rename are
// still seen. Bursts of events within the debounce window produce one call.
type FileWatcher struct {
	path     string
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *FileWatcher) { w.logger = l }
}

// WithDebounce sets the quiet period before onChange fires.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewFileWatcher creates a watcher for path.
func NewFileWatcher(path string, onChange func(path string), opts ...Option) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	w := &FileWatcher{
		path:     abs,
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute watched path.
func (w *FileWatcher) Path() string { return w.path }

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw
	w.started = true
	w.logger.Debug("file watcher starting", zap.String("path", w.path))
	go w.run(ctx)
	return nil
}

func (w *FileWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("file watcher error", zap.Error(err))
			}
		}
	}
}

func (w *FileWatcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	w.logger.Debug("file watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
		w.schedule()
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.done:
			return
		default:
		}
		if w.onChange != nil {
			w.onChange(w.path)
		}
	})
}

// Stop stops the watcher. Safe to call more than once.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
		}
	})
}
