// Package ignore implements the Ignore Oracle (C2): a pure predicate
// deciding whether a path is excluded from watching by configured filters.
// It is treated as an external collaborator by the watch tree (§6) — the
// tree calls Options.Ignore and otherwise knows nothing about pattern
// syntax.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// commonPatterns are excluded when Options.CommonPatterns is enabled. They
// mirror the conventional set of VCS/editor/build-tool noise that chokidar
// and its peers exclude by default.
var commonPatterns = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swx",
	"*~",
}

// Options enumerates the filters configured for an Ignore Oracle instance,
// matching the Configuration fields named in the spec's data model (§3).
type Options struct {
	// Paths are excluded outright. Each entry is compared for equality with
	// the root-relative path and with the base name; an absolute path never
	// matches.
	Paths []string
	// HiddenFiles excludes any path whose base name starts with a dot.
	HiddenFiles bool
	// CommonPatterns excludes the conventional noise patterns above.
	CommonPatterns bool
	// CustomPatterns are additional doublestar glob patterns (evaluated
	// against the path relative to the watch root) supplied by the caller.
	CustomPatterns []string
}

// Ignore reports whether the given path (relative to the watch root, using
// forward slashes) should be excluded from watching. name is the path's base
// name, supplied separately since callers (the Recursion Controller) already
// have it on hand from a directory listing.
func (o Options) Ignore(relativePath, name string) bool {
	if o.HiddenFiles && strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range o.Paths {
		if p == relativePath || p == name {
			return true
		}
	}
	if o.CommonPatterns && matchesAny(commonPatterns, relativePath, name) {
		return true
	}
	if matchesAny(o.CustomPatterns, relativePath, name) {
		return true
	}
	return false
}

// matchesAny reports whether any of patterns matches either the full
// relative path or the base name, using doublestar glob semantics (so
// patterns like "**/*.tmp" and simple names like "vendor" both work as
// expected).
func matchesAny(patterns []string, relativePath, name string) bool {
	relativePath = filepath.ToSlash(relativePath)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, relativePath); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
