package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// maximumEventWaitTime bounds how long a test will wait for an expected
// change event before failing, mirroring the teacher's deadline-based event
// verification in its own watcher tests.
const maximumEventWaitTime = 5 * time.Second

// testConfiguration returns a Configuration tuned for fast, deterministic
// tests: a short debounce window and the poll backend only, so tests don't
// depend on the host's event-backend behavior inside a sandbox.
func testConfiguration() Configuration {
	return Configuration{
		Interval:         10 * time.Millisecond,
		CatchupDelay:     20 * time.Millisecond,
		PreferredMethods: []Method{MethodPoll},
	}
}

func waitForChange(t *testing.T, changes chan ChangeEvent, kind EventKind, path string) ChangeEvent {
	t.Helper()
	deadline := time.NewTimer(maximumEventWaitTime)
	defer deadline.Stop()
	for {
		select {
		case e := <-changes:
			if e.Kind == kind && e.Path == path {
				return e
			}
		case <-deadline.C:
			t.Fatalf("timed out waiting for %v event on %s", kind, path)
		}
	}
}

func waitForWatching(t *testing.T, n *Node) error {
	t.Helper()
	result := make(chan error, 1)
	n.OnceWatching(func(err error) {
		result <- err
	})
	select {
	case err := <-result:
		return err
	case <-time.After(maximumEventWaitTime):
		t.Fatal("timed out waiting for watching to complete")
		return nil
	}
}

// TestWatchDeduplicatesByPath verifies P1: two calls to Watch against the
// same path return the same Node.
func TestWatchDeduplicatesByPath(t *testing.T) {
	directory := t.TempDir()

	first, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	defer first.Close(CloseNormal)
	if err := waitForWatching(t, first); err != nil {
		t.Fatal("watch failed:", err)
	}

	second, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to re-establish watch:", err)
	}

	if first != second {
		t.Fatal("expected the same Node for a duplicate Watch call")
	}
}

// TestWatchIsIdempotent verifies P2: calling Watch() on an already-active
// Node completes immediately without disturbing its state.
func TestWatchIsIdempotent(t *testing.T) {
	directory := t.TempDir()

	n, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	defer n.Close(CloseNormal)
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("watch failed:", err)
	}

	n.Watch()
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("second watch call failed:", err)
	}
	if n.State() != "active" {
		t.Fatalf("expected node to remain active, got %s", n.State())
	}
}

// TestEndToEndLifecycle exercises the full create/update/delete pipeline
// against a real directory: creating, rewriting and removing one file under
// the watched root.
func TestEndToEndLifecycle(t *testing.T) {
	directory := t.TempDir()

	n, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	defer n.Close(CloseNormal)
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("watch failed:", err)
	}

	changes := make(chan ChangeEvent, 64)
	n.OnChange(func(e ChangeEvent) {
		changes <- e
	})

	filePath := filepath.Join(directory, "file.txt")
	if err := os.WriteFile(filePath, []byte("hello"), 0o644); err != nil {
		t.Fatal("unable to create test file:", err)
	}
	waitForChange(t, changes, EventCreate, filePath)

	if err := os.WriteFile(filePath, []byte("hello, more"), 0o644); err != nil {
		t.Fatal("unable to modify test file:", err)
	}
	waitForChange(t, changes, EventUpdate, filePath)

	if err := os.Remove(filePath); err != nil {
		t.Fatal("unable to remove test file:", err)
	}
	waitForChange(t, changes, EventDelete, filePath)
}

// TestRecursiveChildSpawnsAndTearsDown verifies that a subdirectory created
// under a watched root is itself recursively watched (spawning a child
// Node), and that removing it tears the child down (I4) rather than
// leaking a Node in the parent's children map.
func TestRecursiveChildSpawnsAndTearsDown(t *testing.T) {
	directory := t.TempDir()

	n, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	defer n.Close(CloseNormal)
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("watch failed:", err)
	}

	changes := make(chan ChangeEvent, 64)
	n.OnChange(func(e ChangeEvent) {
		changes <- e
	})

	subdirectory := filepath.Join(directory, "subdirectory")
	if err := os.Mkdir(subdirectory, 0o755); err != nil {
		t.Fatal("unable to create subdirectory:", err)
	}
	waitForChange(t, changes, EventCreate, subdirectory)

	nestedFile := filepath.Join(subdirectory, "nested.txt")
	if err := os.WriteFile(nestedFile, []byte("x"), 0o644); err != nil {
		t.Fatal("unable to create nested file:", err)
	}
	waitForChange(t, changes, EventCreate, nestedFile)

	if err := os.RemoveAll(subdirectory); err != nil {
		t.Fatal("unable to remove subdirectory:", err)
	}
	waitForChange(t, changes, EventDelete, subdirectory)

	deadline := time.Now().Add(maximumEventWaitTime)
	for {
		n.mu.Lock()
		_, exists := n.children["subdirectory"]
		n.mu.Unlock()
		if !exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("child entry for removed subdirectory was never cleaned up")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestCloseIsLeakFree verifies P7: closing a watched tree removes every Node
// it spawned from the process-wide Registry, including recursively-spawned
// children.
func TestCloseIsLeakFree(t *testing.T) {
	directory := t.TempDir()
	subdirectory := filepath.Join(directory, "subdirectory")
	if err := os.Mkdir(subdirectory, 0o755); err != nil {
		t.Fatal("unable to create subdirectory:", err)
	}

	registry := defaultRegistry()
	before := registry.count()

	n, err := Watch(directory, testConfiguration())
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("watch failed:", err)
	}

	closed := make(chan CloseReason, 1)
	n.OnClose(func(reason CloseReason) {
		closed <- reason
	})
	n.Close(CloseNormal)

	select {
	case <-closed:
	case <-time.After(maximumEventWaitTime):
		t.Fatal("timed out waiting for close")
	}

	deadline := time.Now().Add(maximumEventWaitTime)
	for registry.count() != before {
		if time.Now().After(deadline) {
			t.Fatalf("registry leaked entries: before=%d after=%d", before, registry.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestDebounceCoalescesRapidNotifications verifies P5: a burst of rapid
// writes within the debounce window produces a single update event rather
// than one per write.
func TestDebounceCoalescesRapidNotifications(t *testing.T) {
	directory := t.TempDir()
	filePath := filepath.Join(directory, "file.txt")
	if err := os.WriteFile(filePath, []byte("0"), 0o644); err != nil {
		t.Fatal("unable to create test file:", err)
	}

	cfg := testConfiguration()
	cfg.CatchupDelay = 100 * time.Millisecond

	n, err := Watch(directory, cfg)
	if err != nil {
		t.Fatal("unable to establish watch:", err)
	}
	defer n.Close(CloseNormal)
	if err := waitForWatching(t, n); err != nil {
		t.Fatal("watch failed:", err)
	}

	changes := make(chan ChangeEvent, 64)
	n.OnChange(func(e ChangeEvent) {
		changes <- e
	})

	for i := 0; i < 10; i++ {
		if err := os.WriteFile(filePath, []byte{byte('1' + i)}, 0o644); err != nil {
			t.Fatal("unable to modify test file:", err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	waitForChange(t, changes, EventUpdate, filePath)

	select {
	case e := <-changes:
		t.Fatalf("expected the rapid burst to coalesce into a single update, got extra event: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}
