// internal/config/watcher.go
//
// Watcher reloads config.yaml when it changes on disk so a running match can
// be retuned without restarting. Editors save with rapid rename/write bursts,
// so events are debounced before a reload is attempted; documents that fail
// validation are reported and skipped rather than applied.

package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// Update is one watcher notification: a freshly loaded config or the error
// that prevented loading it.
type Update struct {
	Config *Config
	Err    error
}

// Watcher monitors a workspace's config.yaml for changes.
type Watcher struct {
	mu       sync.Mutex
	fw       *fsnotify.Watcher
	workDir  string
	path     string
	debounce time.Duration

	updates chan Update
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	closed  bool
}

// WatchConfig creates a watcher for the config file of the given working
// directory. Call Start to begin receiving updates and Stop when done.
func WatchConfig(workDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	cfg := &Config{WorkDir: workDir, WorkspaceDir: filepath.Join(workDir, ReboundDir)}
	return &Watcher{
		fw:       fw,
		workDir:  workDir,
		path:     cfg.ConfigPath(),
		debounce: defaultDebounce,
		updates:  make(chan Update, 4),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Updates delivers reloaded configurations. The channel is never closed while
// the watcher runs; Stop closes it after the loop drains.
func (w *Watcher) Updates() <-chan Update { return w.updates }

// Start begins watching. Non-blocking; the loop runs in its own goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the workspace directory rather than the file itself: editors
	// that replace the file by rename would otherwise detach the watch.
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	var pending <-chan time.Time
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(w.debounce)
		case <-pending:
			pending = nil
			cfg, err := NewConfig(w.workDir)
			select {
			case w.updates <- Update{Config: cfg, Err: err}:
			case <-w.stopCh:
				return
			}
		case _, ok := <-w.fw.Errors:
			if !ok {
				return
			}
		}
	}
}

// Stop terminates the watch loop and releases the fsnotify handle. Safe to
// call whether or not Start succeeded, and safe to call twice.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	_ = w.fw.Close()
	close(w.updates)
}
