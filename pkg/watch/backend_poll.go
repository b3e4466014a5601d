package watch

import (
	"os"
	"sync"
	"time"
)

// pollBackend implements backend via periodic stat polling (§4.2): reliable
// but slower, and the one that must work even when the event backend is
// unavailable (e.g. network shares).
type pollBackend struct {
	interval   time.Duration
	persistent bool
}

// pollHandle is the backendHandle for a poll loop bound to one path.
type pollHandle struct {
	stop       chan struct{}
	done       chan struct{}
	unbindOnce sync.Once
}

func (b *pollBackend) bind(path string, callback func()) (backendHandle, error) {
	handle := &pollHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(handle.done)

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		var previous os.FileInfo
		previous, _ = os.Lstat(path)

		for {
			select {
			case <-handle.stop:
				return
			case <-ticker.C:
				current, err := os.Lstat(path)
				if pollDelta(previous, current, err) {
					previous = current
					callback()
				} else {
					previous = current
				}
			}
		}
	}()

	return handle, nil
}

// pollDelta decides whether a poll observation differs meaningfully enough
// from the prior one to justify triggering reconciliation. It is
// deliberately coarser than the Stat Comparator (C1): any existence change
// or basic metadata drift is sufficient, since the real comparison happens
// in the Listener Pipeline once it has full Snapshots for both sides.
func pollDelta(previous, current os.FileInfo, statErr error) bool {
	currentMissing := statErr != nil
	previousMissing := previous == nil
	if currentMissing != previousMissing {
		return true
	}
	if currentMissing {
		return false
	}
	return previous.Size() != current.Size() ||
		previous.Mode() != current.Mode() ||
		!previous.ModTime().Equal(current.ModTime())
}

func (h *pollHandle) unbind() error {
	result := ErrWatchTerminated
	h.unbindOnce.Do(func() {
		close(h.stop)
		<-h.done
		result = nil
	})
	return result
}
