// Package scan implements the Directory Scanner collaborator (§6): a
// non-recursive enumeration of a directory's immediate children, filtered
// through the Ignore Oracle. It is consumed by the Recursion Controller
// (C7) and by the Listener Pipeline's creation/deletion scans (C4).
package scan

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/treewatch/treewatch/pkg/ignore"
)

// Entry describes one surviving (non-ignored) child of a scanned directory.
type Entry struct {
	// Name is the child's base name, relative to its parent.
	Name string
	// FullPath is the child's absolute path.
	FullPath string
}

// ListDir enumerates the immediate children of path, relative to
// watchRootRelative (used to evaluate ignore patterns against paths
// relative to the watch root rather than the filesystem root), dropping any
// entry the Ignore Oracle excludes.
func ListDir(path string, watchRootRelative string, options ignore.Options) ([]Entry, error) {
	directory, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open directory")
	}
	defer directory.Close()

	names, err := directory.Readdirnames(0)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read directory contents")
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		relative := name
		if watchRootRelative != "" {
			relative = filepath.Join(watchRootRelative, name)
		}
		if options.Ignore(relative, name) {
			continue
		}
		entries = append(entries, Entry{
			Name:     name,
			FullPath: filepath.Join(path, name),
		})
	}
	return entries, nil
}
