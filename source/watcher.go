package source

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher is a File source that also monitors the file for changes. It
// watches the parent directory rather than the file itself so that atomic
// rename-into-place writes (editors, config management tools) are observed.
type FileWatcher struct {
	*File
	filePath string
	watcher  *fsnotify.Watcher
	callback func(err error)
	mu       sync.RWMutex
	watching bool
}

// NewFileWatcher creates a watchable file source.
func NewFileWatcher(path string) (*FileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		File:     NewFile(absPath),
		filePath: absPath,
	}, nil
}

// Watch starts monitoring the parent directory for changes to the target
// file. The callback receives watcher errors; a nil error means the file
// changed and should be reloaded.
func (fw *FileWatcher) Watch(cb func(err error)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.watching {
		return nil // Already watching
	}

	fw.callback = cb

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	fw.watcher = watcher

	// Watch the parent directory instead of the file directly
	parentDir := filepath.Dir(fw.filePath)
	if err := fw.watcher.Add(parentDir); err != nil {
		fw.watcher.Close()
		fw.watcher = nil
		return err
	}

	fw.watching = true

	go fw.processEvents()

	return nil
}

// Unwatch stops monitoring the file for changes.
func (fw *FileWatcher) Unwatch() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.watching {
		return nil
	}

	fw.watching = false

	if fw.watcher != nil {
		err := fw.watcher.Close()
		fw.watcher = nil
		return err
	}

	return nil
}

// IsWatching reports whether the source is currently being monitored.
func (fw *FileWatcher) IsWatching() bool {
	fw.mu.RLock()
	defer fw.mu.RUnlock()
	return fw.watching
}

// processEvents filters fsnotify events down to ones affecting the target
// file and forwards them to the callback.
func (fw *FileWatcher) processEvents() {
	for {
		fw.mu.RLock()
		watcher := fw.watcher
		fw.mu.RUnlock()
		if watcher == nil {
			return
		}

		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if !fw.isTargetFileEvent(event) {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.notify(nil)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fw.notify(err)
		}
	}
}

func (fw *FileWatcher) notify(err error) {
	fw.mu.RLock()
	cb := fw.callback
	fw.mu.RUnlock()

	if cb != nil {
		cb(err)
	}
}

// isTargetFileEvent checks whether an fsnotify event concerns the watched
// file, ignoring the temporary files editors create alongside it.
func (fw *FileWatcher) isTargetFileEvent(event fsnotify.Event) bool {
	eventPath, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	if eventPath == fw.filePath {
		return true
	}

	fileName := filepath.Base(fw.filePath)
	eventFileName := filepath.Base(eventPath)

	tempPatterns := []string{
		"." + fileName + ".swp", // vim swap files
		"." + fileName + ".tmp",
		fileName + ".tmp",
		fileName + "~",  // backup files
		".#" + fileName, // emacs lock files
	}
	if slices.Contains(tempPatterns, eventFileName) {
		return false
	}

	// A rename/create elsewhere in the directory may still have produced the
	// target file (temp file renamed into place).
	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
		if _, err := os.Stat(fw.filePath); err == nil {
			return true
		}
	}

	return false
}
