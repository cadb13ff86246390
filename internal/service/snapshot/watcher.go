package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	applogger "FinDash/pkg/logger"
)

// Watcher fires a callback whenever the snapshot file is written or
// replaced. The parent directory is watched so atomic renames by the
// exporter are seen too.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	notify  func()
	logger  *applogger.Logger
	started atomic.Bool
	done    chan struct{}
}

// NewWatcher starts watching path. notify must not block.
func NewWatcher(path string, notify func(), logger *applogger.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:    abs,
		watcher: fw,
		notify:  notify,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start dispatches events in the background until ctx is done or Close
// is called.
func (w *Watcher) Start(ctx context.Context) {
	if w.started.Swap(true) {
		return
	}
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.Debug("snapshot file changed", applogger.String("op", ev.Op.String()))
				w.notify()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("snapshot watcher error", applogger.Error(err))
		}
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.started.Load() {
		<-w.done
	}
	return err
}
