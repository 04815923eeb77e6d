package wconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-parses a config file on disk change and swaps it into a
// Holder atomically, so concurrent readers never observe a half-parsed
// config.
type Watcher struct {
	path    string
	holder  *Holder
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	onError func(error)
}

// WatchFile starts watching path's directory (fsnotify watches
// directories reliably across editors that write-then-rename) and
// updates holder whenever path itself changes. onError, if non-nil, is
// called for reload failures; the prior config stays active on failure.
func WatchFile(path string, holder *Holder, onError func(error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("wconfig: new watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("wconfig: watch %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{path: path, holder: holder, fsw: fsw, cancel: cancel, onError: onError}
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
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			next, err := Load(w.path)
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			w.holder.Swap(next)
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

// Close stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.cancel()
	return w.fsw.Close()
}
