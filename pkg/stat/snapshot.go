// Package stat implements the pure stat-comparison component of the watch
// tree (C1 in the design): an immutable snapshot of a path's filesystem
// metadata, and the field-by-field comparison that decides whether two
// snapshots represent a meaningful change.
package stat

import (
	"os"
	"time"

	"github.com/mutagen-io/extstat"
	"github.com/pkg/errors"
)

// Kind identifies the type of filesystem entry a Snapshot describes.
type Kind uint8

const (
	// KindFile indicates a regular file.
	KindFile Kind = iota
	// KindDirectory indicates a directory.
	KindDirectory
	// KindSymlink indicates a symbolic link (only possible when the Node's
	// followLinks configuration is disabled; otherwise links are resolved
	// before being snapshotted).
	KindSymlink
	// KindOther indicates any other entry type (socket, device, FIFO, ...).
	KindOther
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Snapshot is an immutable record of a path's filesystem metadata at an
// instant. AccessTime and ChangeTime are tracked but deliberately excluded
// from equality comparisons in Changed, since they churn independent of any
// semantic content change (read-ahead, cache revalidation, etc.).
type Snapshot struct {
	// Kind is the type of filesystem entry.
	Kind Kind
	// Size is the entry's size in bytes. Meaningless for directories.
	Size int64
	// ModificationTime is the last content-modification time, at whatever
	// resolution the platform provides (nanosecond on Linux/macOS).
	ModificationTime time.Time
	// BirthTime is the entry's creation time, where the platform exposes
	// one. It may be zero on platforms without birthtime support, in which
	// case Inode is used as the "replaced by a different file" signal
	// instead (see Replaced and the Listener Pipeline's Phase A).
	BirthTime time.Time
	// AccessTime is excluded from equality in Changed.
	AccessTime time.Time
	// ChangeTime is excluded from equality in Changed.
	ChangeTime time.Time
	// Inode is the platform inode/file-id number, used as a birthtime
	// fallback. Zero on platforms where it cannot be cheaply obtained.
	Inode uint64
	// Mode is the entry's permission and type bits.
	Mode os.FileMode
}

// HasReliableBirthTime reports whether BirthTime was populated from a real
// platform value (as opposed to being left zero because the platform or
// filesystem doesn't expose one).
func (s *Snapshot) HasReliableBirthTime() bool {
	return s != nil && !s.BirthTime.IsZero()
}

// New computes a Snapshot for path. If followLinks is true, symlinks are
// resolved (via os.Stat semantics); otherwise they are reported as
// KindSymlink without being followed (via os.Lstat semantics).
func New(path string, followLinks bool) (*Snapshot, error) {
	var info os.FileInfo
	var err error
	if followLinks {
		info, err = os.Stat(path)
	} else {
		info, err = os.Lstat(path)
	}
	if err != nil {
		return nil, err
	}

	kind := KindOther
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		kind = KindSymlink
	case info.IsDir():
		kind = KindDirectory
	case info.Mode().IsRegular():
		kind = KindFile
	}

	snapshot := &Snapshot{
		Kind:             kind,
		Size:             info.Size(),
		ModificationTime: info.ModTime(),
		Mode:             info.Mode(),
	}

	if extended, extErr := extstat.NewFromFileName(path); extErr == nil {
		snapshot.BirthTime = extended.BirthTime
		snapshot.AccessTime = extended.AccessTime
		snapshot.ChangeTime = extended.ChangeTime
	}

	snapshot.Inode = platformInode(path, followLinks)

	return snapshot, nil
}

// Exists reports whether path currently exists, following or not following a
// trailing symlink per followLinks. A non-existence error is reported as
// (false, nil); any other error is propagated (wrapped) for the caller.
func Exists(path string, followLinks bool) (bool, error) {
	var err error
	if followLinks {
		_, err = os.Stat(path)
	} else {
		_, err = os.Lstat(path)
	}
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "unable to determine path existence")
}
