// internal/replay/recorder.go
//
// Recorder buffers frames in memory and flushes them to disk from a background
// goroutine on a fixed period, so the simulation loop never blocks on file IO.
// Frames that fail to write stay buffered for the next attempt; Stop drains
// the tail before closing the file.

package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"rebound/internal/sim"
)

// Config tunes recorder flushing.
type Config struct {
	// FlushInterval is how often the background goroutine drains the buffer.
	FlushInterval time.Duration
	Logger        Logger
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return Config{FlushInterval: time.Second, Logger: nopLogger{}}
	}
	cfg := config[0]
	if cfg.FlushInterval < 100*time.Millisecond {
		cfg.FlushInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	return cfg
}

// Recorder writes one replay file for one match.
type Recorder struct {
	cfg    Config
	path   string
	header Header

	mu      sync.Mutex
	pending []sim.Frame
	file    *os.File

	stopSig  chan bool
	shutdown int32

	frames uint64
}

// NewRecorder creates the replay file, writes the header, and starts the
// background flusher.
func NewRecorder(path string, header Header, config ...Config) (*Recorder, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("replay: create %s: %w", path, err)
	}
	r := &Recorder{
		cfg:     configDefault(config...),
		path:    path,
		header:  header,
		file:    file,
		stopSig: make(chan bool),
	}
	if err := r.writeLine(header); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, err
	}
	go r.run()
	return r, nil
}

// Path returns the file the recorder writes to.
func (r *Recorder) Path() string { return r.path }

// Frames returns how many frames have been flushed to disk so far.
func (r *Recorder) Frames() uint64 { return atomic.LoadUint64(&r.frames) }

// Push queues one frame for the next flush. It fails once the recorder has
// been stopped.
func (r *Recorder) Push(frame sim.Frame) error {
	if atomic.LoadInt32(&r.shutdown) != 0 {
		return fmt.Errorf("replay: recorder stopped")
	}
	r.mu.Lock()
	r.pending = append(r.pending, frame)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) run() {
	t := time.NewTicker(r.cfg.FlushInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := r.flush(); err != nil {
				r.cfg.Logger.Errorw("replay flush failed", "path", r.path, "error", err)
			}
		case flushTail := <-r.stopSig:
			if flushTail {
				if err := r.flush(); err != nil {
					r.cfg.Logger.Errorw("replay tail flush failed", "path", r.path, "error", err)
				}
			}
			if err := r.file.Sync(); err != nil {
				r.cfg.Logger.Warnw("replay sync failed", "path", r.path, "error", err)
			}
			if err := r.file.Close(); err != nil {
				r.cfg.Logger.Warnw("replay close failed", "path", r.path, "error", err)
			}
			r.cfg.Logger.Infow("replay recorded",
				"path", r.path,
				"match_id", r.header.MatchID,
				"frames", r.Frames(),
			)
			r.stopSig <- false
			return
		}
	}
}

// flush drains the pending buffer to disk. On a write failure the unwritten
// remainder is put back so nothing is lost before the next attempt.
func (r *Recorder) flush() error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	for i, frame := range batch {
		if err := r.writeLine(frame); err != nil {
			r.mu.Lock()
			r.pending = append(batch[i:], r.pending...)
			r.mu.Unlock()
			return err
		}
		atomic.AddUint64(&r.frames, 1)
	}
	return nil
}

func (r *Recorder) writeLine(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("replay: encode: %w", err)
	}
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("replay: write: %w", err)
	}
	return nil
}

// Stop terminates the flusher. With flushTail true the buffered frames are
// written out first; with false they are dropped. Stop waits for the
// goroutine to finish and is safe to call once.
func (r *Recorder) Stop(flushTail bool) {
	if !atomic.CompareAndSwapInt32(&r.shutdown, 0, 1) {
		return
	}
	r.stopSig <- flushTail
	<-r.stopSig
}
