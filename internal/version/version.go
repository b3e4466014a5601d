// Package version records treewatch's release version, mirroring the
// teacher's pkg/mutagen version constants (trimmed of the wire-protocol
// handshake encoding, which has no counterpart here since treewatch has no
// client/server boundary).
package version

import "fmt"

const (
	// Major represents the current major version of treewatch.
	Major = 0
	// Minor represents the current minor version of treewatch.
	Minor = 1
	// Patch represents the current patch version of treewatch.
	Patch = 0
)

// String is the full dotted version string.
var String = fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
