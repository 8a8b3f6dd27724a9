package registry

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"scenarist/internal/scenario"
	"scenarist/pkg/logging"
)

// DefaultDebounceInterval is how long the watcher waits for further writes
// to the same file before reloading it. Editors typically fire several
// events per save.
const DefaultDebounceInterval = 250 * time.Millisecond

// Watcher hot-reloads scenario definition files into a registry as they
// change on disk. Changed scenarios take effect for subsequent selections;
// in-flight selections keep the compiled scenario they started with.
type Watcher struct {
	registry *Registry
	basePath string
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	running bool
	stopCh  chan struct{}
}

// NewWatcher creates a watcher for the given scenario directory.
func NewWatcher(registry *Registry, basePath string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounceInterval
	}
	return &Watcher{
		registry: registry,
		basePath: basePath,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching. The base path and any existing subdirectories are
// watched recursively; new subdirectories are added as they appear.
func (w *Watcher) Start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fsWatcher

	err = filepath.WalkDir(w.basePath, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return fsWatcher.Add(path)
		}
		return nil
	})
	if err != nil {
		fsWatcher.Close()
		return err
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	go w.run()
	logging.Info("ScenarioWatcher", "watching %s for scenario changes", w.basePath)
	return nil
}

// Stop shuts the watcher down and cancels pending reloads.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
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
			logging.Error("ScenarioWatcher", err, "filesystem watch error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := w.watcher.Add(event.Name); err != nil {
			logging.Error("ScenarioWatcher", err, "failed to watch new directory %s", event.Name)
		}
		return
	}

	if !scenario.IsDefinitionFile(event.Name) {
		return
	}
	w.scheduleReload(event.Name)
}

// scheduleReload debounces per file: each further event resets the timer.
func (w *Watcher) scheduleReload(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		running := w.running
		w.mu.Unlock()
		if !running {
			return
		}
		if err := w.registry.ReloadFile(path); err != nil {
			logging.Error("ScenarioWatcher", err, "failed to reload %s", path)
			return
		}
		logging.Info("ScenarioWatcher", "reloaded scenarios from %s", path)
	})
}
