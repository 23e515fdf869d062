package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ImageExtensions are the file types the watcher reports
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// WatcherConfig configures a ScreenshotWatcher
type WatcherConfig struct {
	// Settle is how long a file must stay unchanged before it is reported
	Settle     time.Duration
	BufferSize int
	Extensions []string
}

// DefaultWatcherConfig returns the default watcher configuration
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		Settle:     500 * time.Millisecond,
		BufferSize: 32,
		Extensions: ImageExtensions,
	}
}

// ScreenshotWatcher reports image files created or rewritten in a directory
type ScreenshotWatcher struct {
	watcher    *fsnotify.Watcher
	dir        string
	extensions map[string]bool
	settle     time.Duration
	refs       chan ImageRef
	ready      chan string

	mu       sync.Mutex
	pending  map[string]*time.Timer
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	refsOnce sync.Once
	wg       sync.WaitGroup
}

// NewScreenshotWatcher watches dir (not recursively)
func NewScreenshotWatcher(dir string, cfg *WatcherConfig) (*ScreenshotWatcher, error) {
	if cfg == nil {
		cfg = DefaultWatcherConfig()
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", absDir, err)
	}

	exts := make(map[string]bool)
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = true
	}
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 32
	}

	return &ScreenshotWatcher{
		watcher:    watcher,
		dir:        absDir,
		extensions: exts,
		settle:     cfg.Settle,
		refs:       make(chan ImageRef, buffer),
		ready:      make(chan string),
		pending:    make(map[string]*time.Timer),
		stopChan:   make(chan struct{}),
	}, nil
}

// Dir returns the watched directory
func (w *ScreenshotWatcher) Dir() string {
	return w.dir
}

// Start begins delivering events until ctx ends or Stop is called
func (w *ScreenshotWatcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	LogInfo("Watching %s for screenshots", w.dir)
	w.wg.Add(1)
	go w.watchLoop(ctx)
}

// Refs returns the channel of settled image references. It is closed on stop.
func (w *ScreenshotWatcher) Refs() <-chan ImageRef {
	return w.refs
}

// Stop stops watching and closes Refs
func (w *ScreenshotWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		_ = w.watcher.Close()

		w.wg.Wait()
		w.closeRefs()
	})
}

func (w *ScreenshotWatcher) closeRefs() {
	w.refsOnce.Do(func() { close(w.refs) })
}

func (w *ScreenshotWatcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		for path, timer := range w.pending {
			timer.Stop()
			delete(w.pending, path)
		}
		w.running = false
		w.mu.Unlock()
		w.closeRefs()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
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
			LogError("Watcher error: %v", err)
		case path := <-w.ready:
			w.emit(path)
		}
	}
}

func (w *ScreenshotWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[event.Name]; ok {
		timer.Reset(w.settle)
		return
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.settle, func() {
		select {
		case w.ready <- path:
		case <-w.stopChan:
		}
	})
}

func (w *ScreenshotWatcher) emit(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	select {
	case w.refs <- ImageRef(path):
		LogDebug("Screenshot ready: %s", path)
	default:
		LogWarn("Screenshot queue full, dropping %s", path)
	}
}
