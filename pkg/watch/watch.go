// Package watch reports changes to the layer directories so a running
// session can refresh its catalog.
//
// Events are debounced: a burst of writes (an editor saving, a batch copy,
// the pad command rewriting every file) produces a single callback listing
// every changed file once the directory has been quiet for the debounce
// interval.
package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	tsio "github.com/matzehuels/traitstack/pkg/io"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the changed paths of one debounced burst, sorted.
type ChangeFunc func(ctx context.Context, paths []string)

// Watcher watches a fixed set of directories for PNG changes.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	dirs     []string
	onChange ChangeFunc
	debounce time.Duration
	logger   *log.Logger

	pending map[string]time.Time
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher for dirs. Nothing is watched until Start.
func New(dirs []string, onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fs,
		dirs:     slices.Clone(dirs),
		onChange: onChange,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w, nil
}

// Start adds the directories and runs the event loop in a goroutine.
// Directories that do not exist yet are created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.logger.Warn("cannot create layer directory", "dir", dir, "err", err)
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("cannot watch layer directory", "dir", dir, "err", err)
			continue
		}
		w.logger.Debug("watching", "dir", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the watcher. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fs.Close(); err != nil {
		w.logger.Error("closing watcher", "err", err)
	}
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(max(w.debounce/5, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "err", err)
		case <-tick.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !relevant(event) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || !tsio.IsPNG(base) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// flush reports the pending burst once every path has been quiet.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	slices.Sort(paths)
	w.logger.Debug("layer files changed", "count", len(paths))
	if w.onChange != nil {
		w.onChange(ctx, paths)
	}
}
