package scanner

import (
	"github.com/fsnotify/fsnotify"

	"github.com/wasmrunner/wasmrunner/log"
)

// Notifier calls a hint function whenever the watched directory
// changes. It never replaces the poll-driven Scan: the reconciler
// treats every event purely as "maybe tick sooner."
type Notifier struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching dir, invoking hint on every write, create, or
// remove event. Watch failures are logged and otherwise ignored: the
// poller remains the source of truth.
func Watch(dir string, hint func()) (*Notifier, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	n := &Notifier{watcher: w, done: make(chan struct{})}

	go n.run(hint)

	return n, nil
}

func (n *Notifier) run(hint func()) {
	defer close(n.done)

	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				hint()
			}
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("scanner: fsnotify error: %v", err)
		}
	}
}

// Close stops watching and releases the underlying inotify/kqueue
// handle.
func (n *Notifier) Close() error {
	err := n.watcher.Close()
	<-n.done
	return err
}
