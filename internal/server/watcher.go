package server

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounce collapses the burst of events editors produce for one save.
const debounce = 100 * time.Millisecond

// Watcher watches the lesson document and triggers reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	file     string
	onReload func(filePath string) error
	done     chan struct{}
	log      *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for file. The file's directory is watched so
// that editors replacing the file on save are noticed.
func NewWatcher(file string, onReload func(string) error, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fsWatcher,
		file:     abs,
		onReload: onReload,
		done:     make(chan struct{}),
		log:      logger,
	}, nil
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.file {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					w.log.Debug("lesson document changed", zap.String("op", event.Op.String()))
					w.schedule()
				}

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn("watch error", zap.Error(err))

			case <-w.done:
				return
			}
		}
	}()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, w.fire)
}

func (w *Watcher) fire() {
	select {
	case <-w.done:
		return
	default:
	}
	if err := w.onReload(w.file); err != nil {
		w.log.Error("reload failed", zap.String("file", w.file), zap.Error(err))
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	close(w.done)
	return w.watcher.Close()
}
