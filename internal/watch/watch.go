// Package watch reloads a document snapshot when its file changes on disk
// and hands the new document to the running session.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/iconform/internal/scene"
	"github.com/jmylchreest/iconform/internal/scene/memdoc"
)

// DefaultDebounce groups bursts of writes into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Reloader receives each reloaded document. session.Controller
// implements it.
type Reloader interface {
	ReplaceDocument(ctx context.Context, doc scene.Document) error
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration

	// Selection, when set, is reapplied to every reloaded snapshot.
	Selection []string

	Logger hclog.Logger
}

// Watcher watches one document file.
type Watcher struct {
	path     string
	target   Reloader
	opts     Options
	logger   hclog.Logger
	watcher  *fsnotify.Watcher
	reloaded chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	reloads int
	stopped bool
	done    chan struct{}
}

// New creates a watcher for the snapshot at path. The containing
// directory is watched so editors that save by rename are seen.
func New(path string, target Reloader, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		target:   target,
		opts:     opts,
		logger:   opts.Logger.Named("watch"),
		watcher:  fw,
		reloaded: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Run processes file events until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching document", "path", w.path, "debounce", w.opts.Debounce)
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return nil
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Stop releases the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.watcher.Close()
}

// Reloads returns how many reloads have been delivered.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Reloaded is signalled after each delivered reload. Signals are not
// queued beyond one.
func (w *Watcher) Reloaded() <-chan struct{} {
	return w.reloaded
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.logger.Trace("file event", "op", event.Op.String())
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.reload(ctx) })
}

func (w *Watcher) reload(ctx context.Context) {
	doc, err := memdoc.Load(w.path)
	if err != nil {
		// Partially written files fail to parse; the next write retries.
		w.logger.Warn("failed to reload document", "path", w.path, "error", err)
		return
	}
	if len(w.opts.Selection) > 0 {
		if _, err := doc.SelectSpecs(w.opts.Selection); err != nil {
			w.logger.Warn("failed to reapply selection", "error", err)
		}
	}
	if err := w.target.ReplaceDocument(ctx, doc); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Error("failed to replace document", "error", err)
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	select {
	case w.reloaded <- struct{}{}:
	default:
	}
	w.logger.Debug("document reloaded", "path", w.path, "selected", len(doc.Selection()))
}
