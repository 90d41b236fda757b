package registry

// watcher.go - source file change detection

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

type watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// StartWatcher begins watching registered source paths for changes.
// A changed source marks its LoadedFile stale; the data is not reloaded
// until Refresh is called. Safe to call once; later calls are no-ops.
func (r *Registry) StartWatcher() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w := &watcher{fw: fw, done: make(chan struct{})}
	r.watcher = w

	for _, t := range r.order {
		if err := w.add(r.byTable[t].Path); err != nil {
			r.logger.Warn("failed to watch source", "path", r.byTable[t].Path, "error", err)
		}
	}

	go r.watchLoop(w)
	return nil
}

func (r *Registry) watchLoop(w *watcher) {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				r.markStale(ev.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			r.logger.Warn("watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// markStale flags any LoadedFile whose source path covers the changed path.
func (r *Registry) markStale(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.order {
		lf := r.byTable[t]
		if lf.Stale {
			continue
		}
		if lf.Path == path || strings.HasPrefix(path, lf.Path+string(filepath.Separator)) {
			lf.Stale = true
			r.logger.Debug("source changed", "table", lf.Table, "path", path)
		}
	}
}

func (w *watcher) add(path string) error {
	return w.fw.Add(path)
}

func (w *watcher) remove(path string) {
	_ = w.fw.Remove(path)
}

func (w *watcher) close() error {
	close(w.done)
	return w.fw.Close()
}
