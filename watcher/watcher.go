package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Rebuilder is the work triggered after a burst of file changes settles.
type Rebuilder interface {
	Reload(ctx context.Context) error
	BuildStatic(ctx context.Context) error
}

// Watcher rebuilds the site when content, templates or talk data change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	target   Rebuilder
	logger   *slog.Logger
	debounce time.Duration
	ignore   []string
	pending  chan struct{}
}

// New watches every directory below each root (recursively). Paths under
// ignore (typically the output dir) never trigger a rebuild.
func New(target Rebuilder, logger *slog.Logger, debounce time.Duration, roots []string, ignore ...string) (*Watcher, error) {
	if target == nil {
		return nil, fmt.Errorf("watcher: missing rebuild target")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		target:   target,
		logger:   logger,
		debounce: debounce,
		pending:  make(chan struct{}, 1),
	}
	for _, dir := range ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) && path == root {
				w.logger.Warn("watch root missing", "path", root)
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) || (path != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, prefix := range w.ignore {
		if abs == prefix || strings.HasPrefix(abs, prefix+string(filepath.Separator)) {
			return true
		}
	}
	// build temp dirs and the rotated backup live next to the output dir
	base := filepath.Base(abs)
	return strings.HasPrefix(base, ".__build-") || strings.HasSuffix(base, ".old")
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	go w.rebuildLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if w.ignored(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory", "path", event.Name, "error", err)
			}
		}
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
		w.trigger()
	}
}

// trigger queues a rebuild; a rebuild already pending absorbs it.
func (w *Watcher) trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pending:
			timer.Reset(w.debounce)
		case <-timer.C:
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	start := time.Now()
	if err := w.target.Reload(ctx); err != nil {
		w.logger.Error("reload", "error", err)
		return
	}
	if err := w.target.BuildStatic(ctx); err != nil {
		w.logger.Error("rebuild", "error", err)
		return
	}
	w.logger.Info("rebuilt", "duration", time.Since(start))
}
