package watch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher observes a single file for modifications. It watches the
// file's parent directory rather than the file itself, so the watch survives
// editors and tools that replace the file via write-to-temp-then-rename.
type FileWatcher struct {
	target  string
	watcher *fsnotify.Watcher

	// Events receives a signal for every relevant change to the target file.
	Events chan string

	// Errors receives watcher errors.
	Errors chan error

	done chan struct{}
}

// NewFileWatcher creates a watcher for the file at path.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %q: %w", filepath.Dir(abs), err)
	}

	fw := &FileWatcher{
		target:  abs,
		watcher: w,
		Events:  make(chan string, 1),
		Errors:  make(chan error, 1),
		done:    make(chan struct{}),
	}

	go fw.loop()

	return fw, nil
}

// Close stops the watcher and releases its resources.
func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}

func (fw *FileWatcher) loop() {
	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			if !fw.isRelevant(event) {
				continue
			}

			// Non-blocking: one pending event is enough, the consumer
			// re-reads the file anyway.
			select {
			case fw.Events <- event.Name:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}

			select {
			case fw.Errors <- err:
			default:
			}
		}
	}
}

// isRelevant filters directory events down to content changes of the target
// file, ignoring editor temporary files and unrelated siblings.
func (fw *FileWatcher) isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}

	if name != fw.target {
		return false
	}

	base := filepath.Base(name)

	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}
