package watch

import (
	"github.com/treewatch/treewatch/pkg/stat"
)

// EventKind enumerates the semantic change event kinds (§3/§6).
type EventKind uint8

const (
	// EventCreate indicates a path came into existence.
	EventCreate EventKind = iota
	// EventUpdate indicates an existing path's content or metadata changed.
	EventUpdate
	// EventDelete indicates a path ceased to exist.
	EventDelete
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ChangeEvent is the stable change-event contract described in §6:
//
//	(update, path, current, previous)
//	(create, path, current, nil)
//	(delete, path, nil, previous)
type ChangeEvent struct {
	Kind     EventKind
	Path     string
	Current  *stat.Snapshot
	Previous *stat.Snapshot
}

// CloseReason enumerates why a Node transitioned out of the active state
// (§4.4's state machine table).
type CloseReason uint8

const (
	// CloseNormal indicates a deliberate, non-error close.
	CloseNormal CloseReason = iota
	// CloseDeleted indicates the watched path itself was deleted.
	CloseDeleted
	// CloseFailure indicates an unrecoverable backend or stat/readdir error.
	CloseFailure
	// CloseChildFailure indicates a child failed during directory
	// activation and the parent is unwinding as a result.
	CloseChildFailure
)

// String returns a human-readable representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseNormal:
		return "normal"
	case CloseDeleted:
		return "deleted"
	case CloseFailure:
		return "failure"
	case CloseChildFailure:
		return "child failure"
	default:
		return "unknown"
	}
}

// listeners holds the typed listener tables for a Node's five event
// channels (§9 Design Notes: "model as typed channels or typed listener
// tables, not string-keyed dispatch").
type listeners struct {
	change   []func(ChangeEvent)
	close    []func(CloseReason)
	log      []func(string)
	watching []func(error)
	err      []func(error)
}

func (l *listeners) emitChange(e ChangeEvent) {
	for _, f := range l.change {
		f(e)
	}
}

func (l *listeners) emitClose(r CloseReason) {
	for _, f := range l.close {
		f(r)
	}
}

func (l *listeners) emitLog(message string) {
	for _, f := range l.log {
		f(message)
	}
}

func (l *listeners) emitWatching(err error) {
	for _, f := range l.watching {
		f(err)
	}
}

func (l *listeners) emitError(err error) {
	for _, f := range l.err {
		f(err)
	}
}
