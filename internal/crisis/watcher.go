package crisis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = time.Second

// Watcher reloads a keyword file into a Holder whenever it changes.
type Watcher struct {
	path     string
	holder   *Holder
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	cancel   context.CancelFunc
}

// WatchFile starts watching path. The parent directory is watched so that
// editors replacing the file by rename are picked up too. A file that fails
// to load or validate is logged and the previous screener stays active.
func WatchFile(ctx context.Context, path string, holder *Holder, logger *slog.Logger) (*Watcher, error) {
	return watchFile(ctx, path, holder, logger, defaultDebounce)
}

func watchFile(ctx context.Context, path string, holder *Holder, logger *slog.Logger, debounce time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve keyword file path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch keyword directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		path:     absPath,
		holder:   holder,
		logger:   logger,
		watcher:  fw,
		debounce: debounce,
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Keyword watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadKeywordsFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload crisis keywords, keeping previous set", "path", w.path, "error", err)
		return
	}
	screener, err := NewScreener(cfg)
	if err != nil {
		w.logger.Error("Rejected crisis keyword set", "path", w.path, "error", err)
		return
	}
	w.holder.Store(screener)
	w.logger.Info("Crisis keywords reloaded", "path", w.path, "version", screener.Version())
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	w.cancel()
	<-w.done
	return nil
}
