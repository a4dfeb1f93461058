package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-ingest/internal/logger"
)

// Notifier turns fsnotify events under a root into change hints.
// Hints carry no payload: the consumer rescans with its cursor, so a
// dropped or duplicated hint never loses or repeats work.
type Notifier struct {
	root    string
	watcher *fsnotify.Watcher
}

// NewNotifier creates a notifier that watches root and every directory
// below it.
func NewNotifier(root string) (*Notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	n := &Notifier{root: filepath.Clean(root), watcher: w}
	if err := n.addTree(n.root); err != nil {
		w.Close()
		return nil, err
	}
	return n, nil
}

// addTree watches dir and its non-hidden subdirectories.
func (n *Notifier) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return n.watcher.Add(path)
	})
}

// Watch forwards a hint for every create, write, remove or rename until
// ctx is cancelled. Hints are dropped when the channel is full.
func (n *Notifier) Watch(ctx context.Context) <-chan struct{} {
	hints := make(chan struct{}, 1)

	go func() {
		defer close(hints)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-n.watcher.Events:
				if !ok {
					return
				}
				if !n.relevant(event) {
					continue
				}
				// New directories need their own watch.
				if event.Has(fsnotify.Create) {
					if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
						if err := n.addTree(event.Name); err != nil {
							logger.Warn("watch %s: %v", event.Name, err)
						}
					}
				}
				select {
				case hints <- struct{}{}:
				default:
				}
			case err, ok := <-n.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem notifier: %v", err)
			}
		}
	}()

	return hints
}

// relevant filters out chmod-only events and hidden files.
func (n *Notifier) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return !strings.HasPrefix(filepath.Base(event.Name), ".")
}

// Close stops the underlying watcher.
func (n *Notifier) Close() error {
	return n.watcher.Close()
}
