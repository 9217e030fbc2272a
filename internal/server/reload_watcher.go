package server

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"jobfit/internal/errors"
)

// ReloadWatcher watches the cluster config and model artifact files and
// fires a debounced callback when any of them changes.
type ReloadWatcher struct {
	mu sync.RWMutex

	files       []string
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	reloadCallback func()
	logger         *errors.Logger

	running bool
}

// NewReloadWatcher creates a watcher over files. Empty paths are skipped.
func NewReloadWatcher(files []string, debounceDelay time.Duration, reloadCallback func(), logger *errors.Logger) *ReloadWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}

	var watched []string
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		if !slices.Contains(watched, f) {
			watched = append(watched, f)
		}
	}

	return &ReloadWatcher{
		files:          watched,
		lastModTime:    make(map[string]time.Time),
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1),
		reloadCallback: reloadCallback,
		logger:         logger,
	}
}

// Start begins watching
func (rw *ReloadWatcher) Start() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.running {
		return fmt.Errorf("reload watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	rw.fsWatcher = watcher
	rw.updateModTimes()

	for _, dir := range rw.watchedDirs() {
		if err := rw.fsWatcher.Add(dir); err != nil && rw.logger != nil {
			rw.logger.Warn("Failed to watch directory", "directory", dir, "error", err)
		}
	}

	rw.running = true
	go rw.watchLoop()

	if rw.logger != nil {
		rw.logger.Info("Reload watcher started",
			"files", rw.files,
			"debounce_delay", rw.debounceDelay.String())
	}
	return nil
}

// Stop stops the watcher
func (rw *ReloadWatcher) Stop() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if !rw.running {
		return nil
	}

	close(rw.stopChan)
	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}
	rw.running = false

	if rw.fsWatcher != nil {
		if err := rw.fsWatcher.Close(); err != nil {
			if rw.logger != nil {
				rw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	if rw.logger != nil {
		rw.logger.Info("Reload watcher stopped")
	}
	return nil
}

// watchedDirs returns the parent directories of the watched files. Editors and
// deploy tools replace files by rename, which only the directory watch sees.
func (rw *ReloadWatcher) watchedDirs() []string {
	var dirs []string
	for _, f := range rw.files {
		dir := filepath.Dir(f)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func (rw *ReloadWatcher) updateModTimes() {
	for _, file := range rw.files {
		if stat, err := os.Stat(file); err == nil {
			rw.lastModTime[file] = stat.ModTime()
		}
	}
}

// hasFileChanged reports whether file was modified, created or removed since
// the last check. Called only from watchLoop.
func (rw *ReloadWatcher) hasFileChanged(file string) bool {
	stat, err := os.Stat(file)
	if err != nil {
		if _, exists := rw.lastModTime[file]; exists && os.IsNotExist(err) {
			delete(rw.lastModTime, file)
			return true
		}
		return false
	}

	lastMod, exists := rw.lastModTime[file]
	if !exists || !stat.ModTime().Equal(lastMod) {
		rw.lastModTime[file] = stat.ModTime()
		return true
	}
	return false
}

func (rw *ReloadWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-rw.fsWatcher.Events:
			if !ok {
				return
			}
			if rw.shouldProcessEvent(event) {
				rw.scheduleReload()
			}

		case err, ok := <-rw.fsWatcher.Errors:
			if !ok {
				return
			}
			if rw.logger != nil {
				rw.logger.LogError(err, "File watcher error")
			}

		case <-rw.reloadChan:
			if rw.hasAnyFileChanged() {
				if rw.logger != nil {
					rw.logger.Info("Watched files changed, triggering reload")
				}
				rw.reloadCallback()
			}

		case <-rw.stopChan:
			return
		}
	}
}

func (rw *ReloadWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	name := filepath.Clean(event.Name)
	if !slices.Contains(rw.files, name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

func (rw *ReloadWatcher) hasAnyFileChanged() bool {
	changed := false
	for _, f := range rw.files {
		// evaluate every file so all mod times are refreshed
		if rw.hasFileChanged(f) {
			changed = true
		}
	}
	return changed
}

func (rw *ReloadWatcher) scheduleReload() {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.debounceTimer != nil {
		rw.debounceTimer.Stop()
	}

	rw.debounceTimer = time.AfterFunc(rw.debounceDelay, func() {
		select {
		case rw.reloadChan <- struct{}{}:
		default:
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (rw *ReloadWatcher) IsRunning() bool {
	rw.mu.RLock()
	defer rw.mu.RUnlock()
	return rw.running
}

// GetWatchedFiles returns the list of files being watched
func (rw *ReloadWatcher) GetWatchedFiles() []string {
	return slices.Clone(rw.files)
}
