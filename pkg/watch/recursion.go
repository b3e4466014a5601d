package watch

import (
	"path/filepath"
	"sync"

	"github.com/treewatch/treewatch/pkg/scan"
	"github.com/treewatch/treewatch/pkg/stat"
)

// spawnChildren implements the Recursion Controller's initial directory
// activation (§4.7): enumerate child names, filter through the Ignore
// Oracle, and spawn a child Node for each survivor.
func (n *Node) spawnChildren() error {
	if n.rs.followLinks {
		if cyclic, err := n.detectSymlinkCycle(); err != nil {
			return err
		} else if cyclic {
			return nil
		}
	}

	entries, err := scan.ListDir(n.path, n.relativePath(), n.rs.ignore)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		n.spawnChild(entry.Name, entry.FullPath)
	}
	return nil
}

// detectSymlinkCycle records this Node's resolved real path in the
// tree-wide visited cache and reports whether it has already been visited
// (i.e. following symlinks would recurse forever), per the spec's Design
// Notes on tracking visited real paths when followLinks is enabled.
func (n *Node) detectSymlinkCycle() (bool, error) {
	real, err := filepath.EvalSymlinks(n.path)
	if err != nil {
		// If we can't resolve it, there's nothing useful to track; let
		// the normal stat/readdir error paths handle any real problem.
		return false, nil
	}
	if _, ok := n.ctx.visited.Get(real); ok {
		n.emitLog("symlink cycle detected, not recursing into " + n.path)
		return true, nil
	}
	n.ctx.visited.Add(real, struct{}{})
	return false, nil
}

// relativePath returns this Node's path relative to the watch root, using
// forward slashes, for Ignore Oracle evaluation.
func (n *Node) relativePath() string {
	if n.path == n.ctx.rootPath {
		return ""
	}
	rel, err := filepath.Rel(n.ctx.rootPath, n.path)
	if err != nil {
		return n.path
	}
	return rel
}

// spawnChild implements spawning for one surviving child (§4.3's creation
// scan and §4.7): it reserves the slot before recursing (preventing
// double-spawn per the ordering requirement), obtains a Node for fullPath
// through the Registry, wires bubbling and cleanup, and emits a create
// event on this Node once the child activates.
//
// Subscriptions are installed via getOrCreate's preActivate hook rather
// than after it returns: activation now runs on its own goroutine (see
// registry.go), so by the time getOrCreate comes back the child may
// already have fired its watching event, and OnChange/OnClose/OnceWatching
// have no replay semantics — a subscription attached afterward would
// silently miss it, and this Node would never report the child as created.
func (n *Node) spawnChild(name, fullPath string) {
	n.mu.Lock()
	if _, exists := n.children[name]; exists {
		n.mu.Unlock()
		return
	}
	n.children[name] = &childSlot{reserved: true}
	n.mu.Unlock()

	childCfg := n.cfg
	childCfg.Ignore = n.rs.ignore

	child, err := n.ctx.registry.getOrCreate(fullPath, childCfg, n, func(child *Node) {
		child.OnChange(func(e ChangeEvent) {
			n.bubbleChildChange(name, e)
		})
		child.OnClose(func(reason CloseReason) {
			n.handleChildClose(name, reason)
		})
		child.OnceWatching(func(watchErr error) {
			if watchErr == nil {
				n.emitChange(ChangeEvent{Kind: EventCreate, Path: fullPath, Current: child.lastStatSnapshot()})
			}
		})
	})
	if err != nil {
		n.mu.Lock()
		delete(n.children, name)
		n.mu.Unlock()
		n.emitError(err)
		return
	}

	n.mu.Lock()
	n.children[name] = &childSlot{node: child}
	n.mu.Unlock()
}

// bubbleChildChange forwards a child's change event onto this Node's
// change channel (§9 Design Notes: bubbling), and — on a delete whose path
// is the child's own path — proactively ensures the children map entry is
// cleared even if the child's own close race-loses against this
// notification (§4.7).
func (n *Node) bubbleChildChange(name string, e ChangeEvent) {
	n.emitChange(e)
	if e.Kind == EventDelete {
		n.mu.Lock()
		slot, ok := n.children[name]
		stillPresent := ok && !slot.reserved && slot.node != nil && slot.node.path == e.Path
		n.mu.Unlock()
		if stillPresent {
			n.closeChild(name, CloseDeleted)
		}
	}
}

// handleChildClose removes a child's entry from the children map once the
// child itself has closed, satisfying I4: a child's close always removes
// its parent's entry before the parent may report the child as "new."
func (n *Node) handleChildClose(name string, _ CloseReason) {
	n.mu.Lock()
	if slot, ok := n.children[name]; ok && !slot.reserved {
		delete(n.children, name)
	}
	n.mu.Unlock()
}

// closeChild closes the Node (if any, and not merely reserved) at name in
// this Node's children map. The sentinel is tested explicitly via the
// reserved field rather than a truthiness check on the slot, avoiding the
// bug the spec's Design Notes attribute to the original implementation.
func (n *Node) closeChild(name string, reason CloseReason) {
	n.mu.Lock()
	slot, ok := n.children[name]
	n.mu.Unlock()
	if !ok || slot.reserved || slot.node == nil {
		return
	}
	slot.node.close(reason)
}

// diffDirectory implements Phase C for a directory Node (§4.3): the
// forwarded re-check, deletion scan, and creation scan run concurrently,
// and the batch is considered resolved only once every arm completes.
func (n *Node) diffDirectory() {
	entries, err := scan.ListDir(n.path, n.relativePath(), n.rs.ignore)
	if err != nil {
		n.emitError(err)
		return
	}
	fresh := make(map[string]string, len(entries))
	for _, e := range entries {
		fresh[e.Name] = e.FullPath
	}

	n.mu.Lock()
	existingNames := make([]string, 0, len(n.children))
	for name, slot := range n.children {
		if !slot.reserved {
			existingNames = append(existingNames, name)
		}
	}
	method := n.method
	n.mu.Unlock()

	var wg sync.WaitGroup

	if method == MethodEvent {
		for _, name := range existingNames {
			if _, present := fresh[name]; !present {
				continue
			}
			n.mu.Lock()
			slot := n.children[name]
			n.mu.Unlock()
			if slot == nil || slot.reserved || slot.node == nil {
				continue
			}
			wg.Add(1)
			go func(child *Node) {
				defer wg.Done()
				child.reconcile()
			}(slot.node)
		}
	}

	for _, name := range existingNames {
		if _, present := fresh[name]; present {
			continue
		}
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			n.closeChild(name, CloseDeleted)
		}(name)
	}

	for name, fullPath := range fresh {
		n.mu.Lock()
		_, exists := n.children[name]
		n.mu.Unlock()
		if exists {
			continue
		}
		wg.Add(1)
		go func(name, fullPath string) {
			defer wg.Done()
			n.spawnChild(name, fullPath)
		}(name, fullPath)
	}

	wg.Wait()
}

// lastStatSnapshot returns the Node's most recently committed stat
// snapshot.
func (n *Node) lastStatSnapshot() *stat.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastStat
}
