// Package watch implements the watcher tree: the process-wide Registry
// (C6), per-path Node state machine (C5), the OS Watch Backend pair (C3),
// the debounced Listener Pipeline (C4), and the Recursion Controller (C7)
// described in the design. Watch is the package's sole public entry point;
// callers otherwise interact exclusively through the Node it returns.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/treewatch/treewatch/pkg/logging"
	"github.com/treewatch/treewatch/pkg/stat"
)

// nodeState is a Node's position in the state machine of §4.4. Transitions
// are monotone (I5): pending -> active -> (closed | deleted), with closed
// and deleted terminal.
type nodeState uint8

const (
	statePending nodeState = iota
	stateActive
	stateClosed
	stateDeleted
)

// reservedChild names the reserved sentinel but is not what the children
// map stores: the placeholder a parent installs while a child Node is being
// constructed is a childSlot with reserved set (see childSlot below).
type reservedChild struct{}

// childSlot is the value type of a Node's children map (§3). Exactly one
// of node or reserved is meaningful at a time. A slot with reserved set is
// the sentinel placeholder installed while a child Node is being
// constructed, preventing a concurrent phase from double-spawning the same
// name (§4.3's ordering requirement); closeChild and the Phase C scans test
// the reserved field explicitly, so a reserved slot is never mistaken for
// an absent entry — the bug the spec's Design Notes call out in the
// original implementation's closeChild.
type childSlot struct {
	node     *Node
	reserved bool
}

// treeContext is shared by every Node descended from a single top-level
// Watch call: the Registry they dedupe through, the symlink-cycle cache,
// and a per-tree correlation id. The id is generated for each tree; no log
// line, event or CLI output includes it.
type treeContext struct {
	registry  *Registry
	rootPath  string
	visited   *lru.Cache
	sessionID uuid.UUID
	logger    *logging.Logger
}

// visitedCapacity bounds the symlink-cycle cache so pathological trees
// (many distinct symlinked subtrees) can't grow it unboundedly; it evicts
// on an LRU basis exactly like the teacher's inotify-watch evictor in
// pkg/filesystem/watching/watch_non_recursive_linux.go.
const visitedCapacity = 8192

// Node is the per-path watcher: the unit of state, event emission, and
// recursion (§3).
type Node struct {
	ctx  *treeContext
	path string
	name string // base name, relative to this Node's parent; "" for the root

	cfg Configuration
	rs  resolved

	logger *logging.Logger

	mu       sync.Mutex
	state    nodeState
	lastStat *stat.Snapshot
	method   Method
	handle   backendHandle
	children map[string]*childSlot

	pendingBatch  *batch
	debounceTimer *time.Timer

	listeners     listeners
	internalClose []func(CloseReason)
}

func newNode(path string, cfg Configuration, registry *Registry, parent *Node) *Node {
	var ctx *treeContext
	var name string
	if parent == nil {
		ctx = &treeContext{
			registry:  registry,
			rootPath:  path,
			visited:   lru.New(visitedCapacity),
			sessionID: uuid.New(),
			logger:    logging.RootLogger.Sublogger("watch"),
		}
	} else {
		ctx = parent.ctx
		name = filepath.Base(path)
	}

	n := &Node{
		ctx:      ctx,
		path:     path,
		name:     name,
		cfg:      cfg,
		rs:       cfg.resolve(),
		logger:   ctx.logger.Sublogger(path),
		state:    statePending,
		children: make(map[string]*childSlot),
	}
	return n
}

// Path returns the Node's absolute path.
func (n *Node) Path() string {
	return n.path
}

// Watch re-activates the Node, per the public, idempotent contract of
// §4.4. Most callers never need this directly — Watch (the package
// function) already activates new Nodes. On an already-active Node it does
// not rebind the backend; it only emits watching(nil) again. Activation runs on
// its own goroutine, mirroring Watch (the package function), so that this
// call returns promptly and a caller racing to subscribe via
// OnWatching/OnceWatching right afterward isn't subscribing against an
// activation that already ran inline before it had a chance to.
func (n *Node) Watch() {
	go n.watch(false)
}

// Close implements the public cancellation primitive of §5/§4.4.
func (n *Node) Close(reason CloseReason) {
	n.close(reason)
}

// State exposes the Node's current lifecycle state for diagnostics and
// tests; it is not part of the stable event-based contract.
func (n *Node) State() string {
	switch n.getState() {
	case statePending:
		return "pending"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	case stateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Method returns the OS Watch Backend currently bound to this Node, or
// MethodNone if it isn't active.
func (n *Node) Method() Method {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.method
}

// reconfigure updates a Node's configuration in place, as Registry.getOrCreate
// does for an already-registered path (§4.6).
func (n *Node) reconfigure(cfg Configuration) {
	n.mu.Lock()
	n.cfg = cfg
	n.rs = cfg.resolve()
	n.mu.Unlock()
}

// On subscribes listener functions to the Node's event channels. Each
// returns nothing; subscriptions persist for the Node's lifetime (use the
// Once* variants for one-shot subscriptions).
func (n *Node) OnChange(f func(ChangeEvent)) {
	n.mu.Lock()
	n.listeners.change = append(n.listeners.change, f)
	n.mu.Unlock()
}

func (n *Node) OnClose(f func(CloseReason)) {
	n.mu.Lock()
	n.listeners.close = append(n.listeners.close, f)
	n.mu.Unlock()
}

func (n *Node) OnLog(f func(string)) {
	n.mu.Lock()
	n.listeners.log = append(n.listeners.log, f)
	n.mu.Unlock()
}

func (n *Node) OnWatching(f func(error)) {
	n.mu.Lock()
	n.listeners.watching = append(n.listeners.watching, f)
	n.mu.Unlock()
}

func (n *Node) OnError(f func(error)) {
	n.mu.Lock()
	n.listeners.err = append(n.listeners.err, f)
	n.mu.Unlock()
}

// onCloseInternal subscribes a listener invoked on close alongside, but
// independently of, the public OnClose table — used by the Registry to
// remove its own entry without participating in (or being cleared by)
// caller-visible subscription state.
func (n *Node) onCloseInternal(f func(CloseReason)) {
	n.mu.Lock()
	n.internalClose = append(n.internalClose, f)
	n.mu.Unlock()
}

// OnceWatching subscribes a listener that fires at most once.
func (n *Node) OnceWatching(f func(error)) {
	var fired bool
	var mu sync.Mutex
	n.OnWatching(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if fired {
			return
		}
		fired = true
		f(err)
	})
}

func (n *Node) snapshotListeners() listeners {
	n.mu.Lock()
	defer n.mu.Unlock()
	return listeners{
		change:   append([]func(ChangeEvent){}, n.listeners.change...),
		close:    append([]func(CloseReason){}, n.listeners.close...),
		log:      append([]func(string){}, n.listeners.log...),
		watching: append([]func(error){}, n.listeners.watching...),
		err:      append([]func(error){}, n.listeners.err...),
	}
}

func (n *Node) emitChange(e ChangeEvent) {
	n.snapshotListeners().emitChange(e)
}

func (n *Node) emitClose(r CloseReason) {
	n.mu.Lock()
	internal := append([]func(CloseReason){}, n.internalClose...)
	n.mu.Unlock()
	for _, f := range internal {
		f(r)
	}
	n.snapshotListeners().emitClose(r)
}

func (n *Node) emitLog(message string) {
	n.logger.Debug(message)
	n.snapshotListeners().emitLog(message)
}

func (n *Node) emitWatching(err error) {
	n.snapshotListeners().emitWatching(err)
}

func (n *Node) emitError(err error) {
	n.logger.Warn(err)
	n.snapshotListeners().emitError(err)
}

func (n *Node) getState() nodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// watch implements the public, idempotent activation contract of §4.4. If
// already active and reset is false, it completes immediately (P2). Reset
// forces a rebuild of the backend (used for the birthtime-replacement case
// in Phase A, §4.3).
func (n *Node) watch(reset bool) {
	n.mu.Lock()
	var stale backendHandle
	switch n.state {
	case stateClosed, stateDeleted:
		n.mu.Unlock()
		return
	case stateActive:
		if !reset {
			n.mu.Unlock()
			n.emitWatching(nil)
			return
		}
		stale = n.unbindLocked()
	}
	n.mu.Unlock()

	// The stale handle is released only after n.mu is free: unbind blocks
	// until the backend's delivery goroutine exits, and that goroutine's
	// callback (onRawNotification) itself acquires n.mu, so joining it
	// while still holding the lock would deadlock against a notification
	// already in flight.
	if stale != nil {
		stale.unbind()
	}

	err := n.activate()
	if err != nil {
		n.close(CloseFailure)
	}
	n.emitWatching(err)
}

// activate performs the non-idempotent half of watch(): refreshing stat,
// binding a backend through the fallback chain, and — for directories —
// enumerating and spawning children. It returns the first fatal error, if
// any, and otherwise transitions the Node to active.
func (n *Node) activate() error {
	snapshot, err := stat.New(n.path, n.rs.followLinks)
	if err != nil {
		n.emitError(errors.Wrap(err, "stat failed"))
		return err
	}

	handle, method, err := n.bindBackend()
	if err != nil {
		n.emitError(errors.Wrap(err, "bind failed"))
		return err
	}

	n.mu.Lock()
	n.lastStat = snapshot
	n.handle = handle
	n.method = method
	n.state = stateActive
	n.mu.Unlock()

	if snapshot.Kind == stat.KindDirectory {
		if err := n.spawnChildren(); err != nil {
			n.emitError(errors.Wrap(err, "child spawn failed"))
			n.close(CloseChildFailure)
			return err
		}
	}

	return nil
}

// bindBackend implements backend fallback (§4.5): attempt each preferred
// method in order, recording every failure, until one binds or the list is
// exhausted.
func (n *Node) bindBackend() (backendHandle, Method, error) {
	var attempts []string
	for _, method := range n.rs.preferredMethods {
		var b backend
		switch method {
		case MethodEvent:
			b = &eventBackend{}
		case MethodPoll:
			b = &pollBackend{interval: n.rs.interval, persistent: n.rs.persistent}
		default:
			panic("unknown watch method")
		}

		handle, err := b.bind(n.path, n.onRawNotification)
		if err == nil {
			return handle, method, nil
		}
		attempts = append(attempts, method.String()+": "+err.Error())
	}
	return nil, MethodNone, errors.Errorf("all watch methods exhausted: %v", attempts)
}

// unbindLocked clears the Node's backend handle and method under n.mu and
// returns the handle (if any) for the caller to unbind once n.mu is
// released. It never itself calls handle.unbind — see the callers' comments
// for why that join must happen outside the lock.
func (n *Node) unbindLocked() backendHandle {
	handle := n.handle
	n.handle = nil
	n.method = MethodNone
	return handle
}

// close implements the Node's cancellation primitive (§5): transitions to
// closed or deleted per reason, recursively closes children, releases the
// backend, and emits close (and, for a deletion, a delete change event
// immediately beforehand). It is idempotent — closing an already-terminal
// Node is a no-op (I5, the state machine table's "close when not active"
// row).
func (n *Node) close(reason CloseReason) {
	n.mu.Lock()
	if n.state == stateClosed || n.state == stateDeleted {
		n.mu.Unlock()
		return
	}

	if n.debounceTimer != nil {
		n.debounceTimer.Stop()
		n.debounceTimer = nil
	}
	n.pendingBatch = nil

	previous := n.lastStat
	children := make([]*Node, 0, len(n.children))
	for _, slot := range n.children {
		if !slot.reserved && slot.node != nil {
			children = append(children, slot.node)
		}
	}

	if reason == CloseDeleted {
		n.state = stateDeleted
	} else {
		n.state = stateClosed
	}
	stale := n.unbindLocked()
	n.mu.Unlock()

	// As in watch(reset=true), the join against the backend's delivery
	// goroutine must happen with n.mu free, since that goroutine's own
	// callback acquires n.mu.
	if stale != nil {
		stale.unbind()
	}

	for _, child := range children {
		child.close(CloseNormal)
	}

	if reason == CloseDeleted {
		n.emitChange(ChangeEvent{Kind: EventDelete, Path: n.path, Previous: previous})
	}
	n.emitClose(reason)
}
