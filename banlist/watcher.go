package banlist

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a List whenever banned-ips.json changes on disk. The
// watch targets the containing directory rather than the file itself,
// since most editors and `mv`-based writers replace the file rather than
// write into it in place, which would orphan a watch on the old inode.
type Watcher struct {
	fsw  *fsnotify.Watcher
	dir  string
	list *List
	done chan struct{}
}

// Watch starts watching dir for changes to banned-ips.json, loading it
// immediately and on every subsequent write/create/rename event.
func Watch(dir string, list *List) (*Watcher, error) {
	if err := list.Load(dir); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw, dir: dir, list: list, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Join(w.dir, FileName)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.list.Load(w.dir)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
