package domain

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads all four list files from a config directory whenever
// any of them changes, swapping each tier's List atomically via the
// Catalogue setters.
type Watcher struct {
	dir     string
	cat     *Catalogue
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	onError func(error)
}

// WatchDir starts watching dir for changes to the four list files.
func WatchDir(dir string, cat *Catalogue, onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("domain: new watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("domain: watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{dir: dir, cat: cat, fsw: fsw, cancel: cancel, onError: onError}
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if errs := LoadAll(w.dir, w.cat); len(errs) > 0 && w.onError != nil {
				for _, e := range errs {
					w.onError(e)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	return w.fsw.Close()
}
