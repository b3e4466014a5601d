package watch

import (
	"path/filepath"
	"sync"
)

// Registry is the process-wide mapping from absolute path to Node (C6),
// deduplicating watchers by path (I1). It is never exposed as mutable
// global state to callers (§9 Design Notes); the package-level Watch
// function is the only entry point, backed by the lazily-initialized
// singleton below.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// defaultRegistry returns the lazily-initialized process-wide Registry.
func defaultRegistry() *Registry {
	globalRegistryOnce.Do(func() {
		globalRegistry = newRegistry()
	})
	return globalRegistry
}

func newRegistry() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

// getOrCreate implements C6's get_or_create: if an entry for path exists,
// its configuration is updated and watch() is invoked again (idempotent
// per P2); otherwise a new Node is constructed, inserted, subscribed to its
// own close event for self-removal, and activated.
//
// preActivate, if non-nil, runs synchronously against the found-or-created
// Node before activation is kicked off — never after. This lets a caller
// (the Recursion Controller's spawnChild, in particular) subscribe to the
// Node's change/close/watching events with a hard guarantee that the
// subscription is in place before the first watching event can possibly
// fire, rather than racing a goroutine that might already be activating.
// Actual activation (watch) then runs on its own goroutine so that
// getOrCreate itself returns promptly, matching Watch's documented
// asynchronous-activation contract.
func (r *Registry) getOrCreate(path string, cfg Configuration, parent *Node, preActivate func(*Node)) (*Node, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	existing, ok := r.nodes[absolute]
	if ok {
		r.mu.Unlock()
		existing.reconfigure(cfg)
		if preActivate != nil {
			preActivate(existing)
		}
		go existing.watch(false)
		return existing, nil
	}

	node := newNode(absolute, cfg, r, parent)
	r.nodes[absolute] = node
	r.mu.Unlock()

	node.onCloseInternal(func(CloseReason) {
		r.remove(absolute)
	})

	if preActivate != nil {
		preActivate(node)
	}
	go node.watch(false)
	return node, nil
}

func (r *Registry) remove(absolute string) {
	r.mu.Lock()
	delete(r.nodes, absolute)
	r.mu.Unlock()
}

// count reports the number of currently-registered Nodes. Exposed for
// tests verifying dedup (P1) and leak-freedom (P7).
func (r *Registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}
