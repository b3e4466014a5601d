package watch

import "github.com/pkg/errors"

// ErrWatchTerminated indicates that a backend has been terminated, mirroring
// the teacher's pkg/filesystem/watching/watch.go sentinel for the same
// condition.
var ErrWatchTerminated = errors.New("watch terminated")

// backendHandle is the opaque handle a Node holds for its bound backend
// (I2: an active Node holds exactly one). unbind is safe to call more than
// once: the first call releases the backend's resources and waits for its
// delivery goroutine to exit; every call after that is a no-op that
// returns ErrWatchTerminated, so a caller can't mistake a second unbind for
// a fresh failure.
type backendHandle interface {
	unbind() error
}

// backend is the common shape of the two OS Watch Backend variants (C3):
// bind registers for notifications on path, invoking callback (with no
// arguments — raw event payloads are hints only per §4.2, so the Listener
// Pipeline always re-stats rather than trusting event contents) whenever the
// backend observes a change. bind may fail, in which case the Node's
// fallback chain (§4.5) tries the next preferred method.
type backend interface {
	bind(path string, callback func()) (backendHandle, error)
}
