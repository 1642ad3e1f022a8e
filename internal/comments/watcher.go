package comments

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"inspectd/internal/logging"
)

// Watcher watches the comment library files and reloads the library when
// they change, so inspectors can edit boilerplate without restarting the
// server.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	library     *Library
	watchFiles  map[string]bool // absolute paths of the files we care about
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity for debugging.
type WatcherStats struct {
	FilesChanged     int
	ReloadsTriggered int
	Errors           int
	LastEventTime    time.Time
	LastEventPath    string
	LastEventType    string
}

// NewWatcher creates a watcher over the library's default and custom
// files. debounce controls how long changes must settle before a reload.
func NewWatcher(library *Library, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watchFiles := make(map[string]bool)
	for _, path := range []string{library.defaultPath, library.customPath} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		watchFiles[abs] = true
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:     fw,
		library:     library,
		watchFiles:  watchFiles,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the library file directories. Non-blocking; the
// event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	// Watch parent directories rather than the files themselves: editors
	// commonly replace files on save, which drops a direct file watch.
	dirs := make(map[string]bool)
	for path := range w.watchFiles {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			logging.CommentsWarn("Watcher: cannot watch %s: %v", dir, err)
		} else {
			logging.Comments("Watcher: watching directory: %s", dir)
		}
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
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

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryComments).Error("Watcher: error closing: %v", err)
	}
	logging.Comments("Watcher: stopped")
}

// run is the main event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Comments("Watcher: context cancelled")
			return

		case <-w.stopCh:
			logging.Comments("Watcher: stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				logging.Comments("Watcher: event channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				logging.Comments("Watcher: error channel closed")
				return
			}
			logging.Get(logging.CategoryComments).Error("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebouncedEvents()
		}
	}
}

// handleEvent records a change to one of the watched library files.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = event.Name
	}
	if !w.watchFiles[abs] {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return // Ignore chmod, etc.
	}

	logging.CommentsDebug("Watcher: %s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.FilesChanged++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	// Debounce: record the event for later processing
	w.debounceMap[abs] = time.Now()
	w.mu.Unlock()
}

// processDebouncedEvents reloads the library once changes have settled
// past the debounce window.
func (w *Watcher) processDebouncedEvents() {
	w.mu.Lock()
	now := time.Now()
	settled := 0
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			settled++
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	if settled == 0 {
		return
	}

	// One reload covers every settled file; the library re-reads both
	// files regardless of which one changed.
	if err := w.library.Reload(); err != nil {
		logging.Get(logging.CategoryComments).Error("Watcher: reload failed: %v", err)
		logging.Audit().LibraryReload(w.library.defaultPath, false, err.Error())
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	logging.Comments("Watcher: library reloaded after file change")
	logging.Audit().LibraryReload(w.library.defaultPath, true, "")
	w.mu.Lock()
	w.stats.ReloadsTriggered++
	w.mu.Unlock()
}

// GetStats returns the current watcher statistics.
func (w *Watcher) GetStats() WatcherStats {
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
