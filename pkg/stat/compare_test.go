package stat

import (
	"os"
	"testing"
	"time"
)

func TestChangedNilHandling(t *testing.T) {
	if Changed(nil, nil) {
		t.Fatal("two nil snapshots should not be considered changed")
	}
	s := &Snapshot{}
	if !Changed(nil, s) {
		t.Fatal("creation (nil -> snapshot) should be considered changed")
	}
	if !Changed(s, nil) {
		t.Fatal("deletion (snapshot -> nil) should be considered changed")
	}
}

func TestChangedIgnoresAccessAndChangeTime(t *testing.T) {
	base := time.Now()
	old := &Snapshot{
		Kind:             KindFile,
		Size:             10,
		ModificationTime: base,
		AccessTime:       base,
		ChangeTime:       base,
		Mode:             0o644,
	}
	current := &Snapshot{
		Kind:             KindFile,
		Size:             10,
		ModificationTime: base,
		AccessTime:       base.Add(time.Hour),
		ChangeTime:       base.Add(2 * time.Hour),
		Mode:             0o644,
	}
	if Changed(old, current) {
		t.Fatal("snapshots differing only in atime/ctime should not be considered changed")
	}
}

func TestChangedDetectsSizeDifference(t *testing.T) {
	base := time.Now()
	old := &Snapshot{Kind: KindFile, Size: 10, ModificationTime: base}
	current := &Snapshot{Kind: KindFile, Size: 20, ModificationTime: base}
	if !Changed(old, current) {
		t.Fatal("snapshots differing in size should be considered changed")
	}
}

func TestChangedDetectsModTimeDifference(t *testing.T) {
	base := time.Now()
	old := &Snapshot{Kind: KindFile, Size: 10, ModificationTime: base}
	current := &Snapshot{Kind: KindFile, Size: 10, ModificationTime: base.Add(time.Second)}
	if !Changed(old, current) {
		t.Fatal("snapshots differing in modification time should be considered changed")
	}
}

func TestReplacedPrefersBirthTime(t *testing.T) {
	base := time.Now()
	old := &Snapshot{BirthTime: base, Inode: 5}
	current := &Snapshot{BirthTime: base.Add(time.Minute), Inode: 5}
	if !Replaced(old, current) {
		t.Fatal("differing birthtime should indicate replacement even with matching inode")
	}
}

func TestReplacedFallsBackToInode(t *testing.T) {
	old := &Snapshot{Inode: 5}
	current := &Snapshot{Inode: 6}
	if !Replaced(old, current) {
		t.Fatal("differing inode should indicate replacement when birthtime is unavailable")
	}
}

func TestNewAndExists(t *testing.T) {
	directory := t.TempDir()
	path := directory + "/file.txt"
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	exists, err := Exists(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Fatal("expected path to exist")
	}

	snapshot, err := New(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if snapshot.Kind != KindFile {
		t.Fatalf("expected KindFile, got %v", snapshot.Kind)
	}
	if snapshot.Size != 5 {
		t.Fatalf("expected size 5, got %d", snapshot.Size)
	}

	missing := directory + "/missing.txt"
	exists, err = Exists(missing, true)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Fatal("expected missing path to not exist")
	}
}
