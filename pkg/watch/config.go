package watch

import (
	"time"

	"github.com/treewatch/treewatch/pkg/ignore"
)

// Method identifies which OS Watch Backend (C3) a Node is bound to.
type Method uint8

const (
	// MethodNone indicates no backend is currently bound (pending/closed
	// states).
	MethodNone Method = iota
	// MethodEvent indicates the event-driven backend (fsnotify).
	MethodEvent
	// MethodPoll indicates the poll-based backend.
	MethodPoll
)

// String returns a human-readable representation of the method.
func (m Method) String() string {
	switch m {
	case MethodEvent:
		return "event"
	case MethodPoll:
		return "poll"
	default:
		return "none"
	}
}

// Tristate represents a boolean configuration option that distinguishes
// "unspecified" (use the default) from an explicit true/false, the way the
// teacher's session configuration represents optional enum-like overrides
// (e.g. FlushOnCreateBehavior) rather than relying on a bare bool's zero
// value, which can't express "unset."
type Tristate uint8

const (
	// TristateDefault indicates no explicit value was given.
	TristateDefault Tristate = iota
	// TristateEnabled indicates the option is explicitly enabled.
	TristateEnabled
	// TristateDisabled indicates the option is explicitly disabled.
	TristateDisabled
)

// IsDefault reports whether the option was left unspecified.
func (t Tristate) IsDefault() bool {
	return t == TristateDefault
}

// Resolve returns the option's effective value, substituting fallback if
// the tristate is unspecified.
func (t Tristate) Resolve(fallback bool) bool {
	switch t {
	case TristateEnabled:
		return true
	case TristateDisabled:
		return false
	default:
		return fallback
	}
}

// Configuration enumerates the options described in §3 of the spec.
type Configuration struct {
	// Interval is the poll period used by the poll backend. Zero means "use
	// the default" (5007ms, a deliberately off-round value that avoids
	// lockstep with other periodic timers on the same system).
	Interval time.Duration
	// Persistent resolves to true by default and is handed to the poll
	// backend, which does not act on it: a poll loop never keeps the process
	// alive, whatever its value.
	Persistent Tristate
	// CatchupDelay is the debounce window applied to raw notifications
	// before reconciliation runs. Zero means "use the default" (2000ms).
	CatchupDelay time.Duration
	// PreferredMethods is the ordered fallback list attempted at bind time.
	// Empty means "use the default" ([MethodEvent, MethodPoll]).
	PreferredMethods []Method
	// FollowLinks controls whether symlinks are resolved (stat) or reported
	// as symlink entries (lstat). Default: true.
	FollowLinks Tristate
	// Ignore carries the Ignore Oracle's configured filters.
	Ignore ignore.Options
}

// resolved is the effective, fully-defaulted form of a Configuration that
// Nodes actually operate on.
type resolved struct {
	interval         time.Duration
	persistent       bool
	catchupDelay     time.Duration
	preferredMethods []Method
	followLinks      bool
	ignore           ignore.Options
}

// resolve fills in defaults for any unspecified field.
func (c Configuration) resolve() resolved {
	interval := c.Interval
	if interval == 0 {
		interval = 5007 * time.Millisecond
	}
	catchupDelay := c.CatchupDelay
	if catchupDelay == 0 {
		catchupDelay = 2000 * time.Millisecond
	}
	preferred := c.PreferredMethods
	if len(preferred) == 0 {
		preferred = []Method{MethodEvent, MethodPoll}
	}
	return resolved{
		interval:         interval,
		persistent:       c.Persistent.Resolve(true),
		catchupDelay:     catchupDelay,
		preferredMethods: preferred,
		followLinks:      c.FollowLinks.Resolve(true),
		ignore:           c.Ignore,
	}
}
