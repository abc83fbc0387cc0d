package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"echoes/internal/audio"
	"echoes/internal/logging"
)

// Handler receives a settled recording. It should return quickly; the
// watcher loop does not process further events until it does.
type Handler func(ctx context.Context, path string)

// Watcher reports settled audio files created in one directory.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger
	fs      *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool
	ready   chan string
	done    chan struct{}
	once    sync.Once
}

// New watches dir. settle is how long a file must go without writes
// before it is handed to handler.
func New(dir string, settle time.Duration, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch %s: not a directory", dir)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watch"),
		fs:      fsw,
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
		ready:   make(chan string, 16),
		done:    make(chan struct{}),
	}, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Run delivers settled files until ctx is done. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching for recordings",
		logging.String("dir", w.dir),
		logging.Duration("settle", w.settle),
		logging.String(logging.FieldEventType, "watch_start"),
	)
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.observe(event)
		case path := <-w.ready:
			w.deliver(ctx, path)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the watch directory still exists"),
				logging.String(logging.FieldImpact, "new recordings may be missed"),
			)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) observe(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !Eligible(event.Name) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[event.Name] {
		return
	}
	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(w.settle)
		return
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.settle, func() {
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) deliver(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		w.logger.Debug("settled file vanished", logging.String("path", path))
		return
	}
	w.logger.Info("recording detected",
		logging.String("path", path),
		logging.Int64("size_bytes", info.Size()),
		logging.String(logging.FieldEventType, "watch_detected"),
	)
	w.handler(ctx, path)
}

func (w *Watcher) stop() {
	w.once.Do(func() { close(w.done) })
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// Eligible reports whether path names a recording the pipeline accepts.
// Hidden files and the pipeline's own outputs are ignored.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), "_summary") {
		return false
	}
	_, err := audio.FormatFromPath(path)
	return err == nil
}
