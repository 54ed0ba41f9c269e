// Package watcher provides live reload of engine options from a config
// file. It watches the file's directory so editors that replace the file on
// save (rename + create) are still detected.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/config/loader"
	"github.com/dshills/rewind/internal/logging"
)

// ErrClosed is returned when operating on a closed watcher.
var ErrClosed = errors.New("watcher is closed")

// debounceDelay collapses bursts of write events from a single save.
const debounceDelay = 100 * time.Millisecond

// Handler is called with freshly loaded options after the watched file
// changes.
type Handler func(config.Options)

// Watcher monitors a single config file and reloads it on change.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	path    string
	handler Handler
	logger  *logging.Logger
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New starts watching path and calls handler with the reloaded options on
// every change. The file must have a .toml, .yaml, or .yml extension.
func New(path string, handler Handler, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := loader.ForPath(absPath); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		path:    absPath,
		handler: handler,
		logger:  logger.WithComponent("config-watcher"),
		done:    make(chan struct{}),
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// loop consumes fsnotify events until the watcher is closed.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, w.reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error: %v", err)
		}
	}
}

// reload parses the file and invokes the handler.
func (w *Watcher) reload() {
	opts, err := loader.Load(w.path)
	if err != nil {
		w.logger.Warn("reload %s: %v", w.path, err)
		return
	}
	if err := opts.Validate(); err != nil {
		w.logger.Warn("reload %s: %v", w.path, err)
		return
	}
	w.logger.Debug("reloaded %s", w.path)
	w.handler(opts)
}
