// Package watch re-renders an oracle text file whenever it changes on disk.
//
// The watcher observes the file's directory rather than the file itself so
// that editors which save by rename keep being tracked. Bursts of events are
// debounced, and output is only written when the parsed document differs
// from the last one written.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/opal-lang/oracle/runtime/docfmt"
	"github.com/opal-lang/oracle/runtime/parser"
)

// DefaultDebounce is how long a file must be quiet before it is re-rendered.
const DefaultDebounce = 200 * time.Millisecond

// RenderFunc turns a parsed document into output text.
type RenderFunc func(doc *parser.Document) (string, error)

// Option configures a Watcher
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is processed.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger used for watcher events.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Stats counts watcher activity.
type Stats struct {
	Events      int    // filesystem events for the watched file
	Renders     int    // outputs written
	Skipped     int    // changes whose document was unchanged
	Errors      int    // read, render and watcher errors
	Fingerprint string // fingerprint of the last document written
}

// Watcher re-renders one file on change.
type Watcher struct {
	path     string
	out      io.Writer
	render   RenderFunc
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending time.Time // zero when nothing is waiting
	stats   Stats
	running bool
	started bool // stopCh and doneCh belong to an earlier Start
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for path that writes each new rendering to out.
func New(path string, out io.Writer, render RenderFunc, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		out:      out,
		render:   render,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start renders the file once, then watches it in a background goroutine
// until ctx is cancelled or Stop is called. The initial render must succeed.
// A watcher may be started again once the previous run has ended.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	if w.started {
		w.stopCh = make(chan struct{})
		w.doneCh = make(chan struct{})
	}
	w.started = true
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	fsw, err := w.open()
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		// Release a Stop that raced with the failed start.
		close(done)
		return err
	}

	w.logger.Debug("watching", "path", w.path, "debounce", w.debounce)
	go w.run(ctx, fsw, stop, done)
	return nil
}

// open performs the initial render and subscribes to the file's directory.
func (w *Watcher) open() (*fsnotify.Watcher, error) {
	if err := w.process(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	return fsw, nil
}

// Stop ends watching and waits for the background goroutine to exit.
// It is a no-op when the watcher is not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stop)
	<-done
}

// Done is closed when the current run's background goroutine exits.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doneCh
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.Error("closing watcher", "error", err)
		}
		w.mu.Lock()
		if w.doneCh == done {
			w.running = false
		}
		w.mu.Unlock()
	}()

	tick := max(w.debounce/4, 5*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-stop:
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		// Removal and rename are followed by a Create when an editor replaces
		// the file, so there is nothing to do until then.
		w.logger.Debug("ignoring event", "op", event.Op.String())
		return
	}

	w.mu.Lock()
	w.stats.Events++
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled() {
	w.mu.Lock()
	ready := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
	if ready {
		w.pending = time.Time{}
	}
	w.mu.Unlock()

	if !ready {
		return
	}
	if err := w.process(); err != nil {
		w.logger.Error("render failed", "path", w.path, "error", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}

// process reads, parses and renders the file, writing output only when the
// document changed since the last write.
func (w *Watcher) process() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.path, err)
	}

	doc := parser.ParseString(string(data))
	fp, err := docfmt.Fingerprint(doc)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", w.path, err)
	}

	w.mu.Lock()
	unchanged := fp == w.stats.Fingerprint
	if unchanged {
		w.stats.Skipped++
	}
	w.mu.Unlock()
	if unchanged {
		w.logger.Debug("document unchanged", "fingerprint", fp)
		return nil
	}

	out, err := w.render(doc)
	if err != nil {
		return fmt.Errorf("render %s: %w", w.path, err)
	}
	if _, err := io.WriteString(w.out, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	w.mu.Lock()
	w.stats.Renders++
	w.stats.Fingerprint = fp
	w.mu.Unlock()
	w.logger.Debug("rendered", "path", w.path, "fingerprint", fp)
	return nil
}
