// Package watch loads Turtle documents that agents drop into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"ttlform/internal/editor"
)

// OriginPrefix is prepended to the file name to form the automated-origin tag.
const OriginPrefix = "agent:file:"

// Loader receives settled documents. *editor.Controller implements it.
type Loader interface {
	LoadContent(text, originTag string) editor.Result
}

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	Loaded        int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastOrigin    string
}

// Watcher watches a directory for *.ttl writes and loads each file once it has
// been quiet for the debounce window.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	loader      Loader
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	log         *zap.Logger

	stats Stats
}

// New creates a watcher for dir. A zero debounce means 200ms.
func New(dir string, loader Loader, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Watcher{
		watcher:     fw,
		loader:      loader,
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         log,
	}, nil
}

// Start begins watching. It is non-blocking; Stop must be called to release the
// underlying watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.setRunning(false)
		return fmt.Errorf("failed to create watch dir %s: %w", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.setRunning(false)
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.log.Info("watching for dropped documents", zap.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

func (w *Watcher) setRunning(v bool) {
	w.mu.Lock()
	w.running = v
	w.mu.Unlock()
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.log.Error("error closing watcher", zap.Error(err))
	}
	w.log.Debug("watcher stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebouncedEvents()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".ttl") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Op&fsnotify.Create != 0:
		w.stats.FilesCreated++
	case event.Op&fsnotify.Write != 0:
		w.stats.FilesModified++
	default:
		return
	}
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.debounceMap[event.Name] = time.Now()
}

func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if err := w.LoadFile(path); err != nil && !os.IsNotExist(err) {
			w.log.Warn("failed to load dropped document", zap.String("path", path), zap.Error(err))
		}
	}
}

// LoadFile reads path and hands it to the loader with origin "agent:file:<name>".
func (w *Watcher) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		}
		return err
	}

	origin := Origin(path)
	res := w.loader.LoadContent(string(data), origin)
	w.log.Info("loaded dropped document",
		zap.String("origin", origin),
		zap.Stringer("validity", res.Validity),
		zap.Int("triples", res.TripleCount))

	w.mu.Lock()
	w.stats.Loaded++
	w.stats.LastOrigin = origin
	w.mu.Unlock()
	return nil
}

// Origin returns the automated-origin tag for a dropped file.
func Origin(path string) string {
	return OriginPrefix + filepath.Base(path)
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching returns true if the watcher is currently running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
