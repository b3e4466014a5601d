package watch

import (
	"time"

	"github.com/treewatch/treewatch/pkg/stat"
)

// batch is the pending reconciliation associated with a Node during one
// debounce window (§4.3). The design only requires tracking that a batch
// exists and when it resolves; the reconciliation work itself always runs
// against the Node's live state when the timer fires, so batch carries no
// payload of its own.
type batch struct{}

// onRawNotification implements the debounce protocol (§4.3, step 1/2): if a
// batch is already pending, its timer is reset; otherwise a new batch is
// created and a timer started. This guarantees that N raw notifications
// within catchupDelay produce at most one reconciliation pass (P5).
func (n *Node) onRawNotification() {
	n.mu.Lock()
	if n.state != stateActive {
		n.mu.Unlock()
		return
	}
	if n.pendingBatch != nil {
		n.debounceTimer.Reset(n.rs.catchupDelay)
		n.mu.Unlock()
		return
	}
	n.pendingBatch = &batch{}
	n.debounceTimer = time.AfterFunc(n.rs.catchupDelay, n.fireBatch)
	n.mu.Unlock()
}

// fireBatch runs when a Node's debounce timer expires. It clears the
// pending batch and, if the Node is still active (a close() may have
// raced and won), performs the three-phase reconciliation.
func (n *Node) fireBatch() {
	n.mu.Lock()
	n.pendingBatch = nil
	n.debounceTimer = nil
	active := n.state == stateActive
	n.mu.Unlock()

	if active {
		n.reconcile()
	}
}

// reconcile runs the three-phase pipeline of §4.3 against the Node's
// current on-disk state. It is also invoked directly (bypassing debounce)
// as the "forwarded re-check" in a parent's Phase C, and by watch(false)'s
// P2 fast path is not applicable here since that never reconciles.
func (n *Node) reconcile() {
	if n.getState() != stateActive {
		return
	}

	// Phase A: existence check.
	exists, err := stat.Exists(n.path, n.rs.followLinks)
	if err != nil {
		n.emitError(err)
		return
	}
	if !exists {
		n.close(CloseDeleted)
		return
	}

	current, err := stat.New(n.path, n.rs.followLinks)
	if err != nil {
		n.emitError(err)
		return
	}

	n.mu.Lock()
	previous := n.lastStat
	n.mu.Unlock()

	if stat.Replaced(previous, current) {
		// The path has been replaced by a different underlying file or
		// directory: rebuild the backend and skip the remaining phases,
		// per §4.3's Phase A.
		n.watch(true)
		return
	}

	// Phase B: change check.
	if !stat.Changed(previous, current) {
		n.commitStat(current)
		return
	}
	n.commitStat(current)

	// Phase C: diff.
	if current.Kind != stat.KindDirectory {
		n.emitChange(ChangeEvent{
			Kind:     EventUpdate,
			Path:     n.path,
			Current:  current,
			Previous: previous,
		})
		return
	}

	n.diffDirectory()
}

func (n *Node) commitStat(snapshot *stat.Snapshot) {
	n.mu.Lock()
	n.lastStat = snapshot
	n.mu.Unlock()
}
