package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cogniac/cogstats/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// FileWatcher reports changes to a single configuration file.
type FileWatcher struct {
	watcher       *fsnotify.Watcher
	path          string
	events        chan struct{}
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// WatchFile watches path for writes. The directory is watched rather than
// the file itself so editors that replace the file are still seen.
func WatchFile(path string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &FileWatcher{
		watcher:  watcher,
		path:     path,
		events:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns a channel that receives a value after the file changes.
func (w *FileWatcher) Events() <-chan struct{} {
	return w.events
}

// watchLoop handles file system events with debouncing.
func (w *FileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Debounce rapid changes
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, func() {
					select {
					case w.events <- struct{}{}:
					default:
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

// Close stops the watcher.
func (w *FileWatcher) Close() error {
	close(w.stopChan)
	return w.watcher.Close()
}
