package watch

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// eventBackend implements backend using fsnotify, which itself wraps
// inotify/kqueue/FSEvents/ReadDirectoryChangesW depending on platform. It is
// the "event backend" of §4.2: fast but unreliable, so its callback carries
// no payload — the Listener Pipeline always re-stats.
type eventBackend struct{}

// eventHandle is the backendHandle for a single fsnotify.Watcher bound to
// exactly one path, satisfying I2.
type eventHandle struct {
	watcher    *fsnotify.Watcher
	done       sync.WaitGroup
	unbindOnce sync.Once
}

func (b *eventBackend) bind(path string, callback func()) (backendHandle, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create fsnotify watcher")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "unable to register fsnotify watch")
	}

	handle := &eventHandle{watcher: watcher}
	handle.done.Add(1)
	go func() {
		defer handle.done.Done()
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				// The event kind and attached filename are hints only
				// (§4.2): we don't even look at them, just trigger
				// reconciliation.
				callback()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// A watch error doesn't terminate the Node; it simply
				// triggers another reconciliation pass, which will
				// discover the true state (including a possible
				// deletion) via Phase A.
				callback()
			}
		}
	}()

	return handle, nil
}

func (h *eventHandle) unbind() error {
	result := ErrWatchTerminated
	h.unbindOnce.Do(func() {
		result = h.watcher.Close()
		h.done.Wait()
	})
	return result
}
