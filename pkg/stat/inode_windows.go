//go:build windows

package stat

// platformInode is a no-op on Windows (FileID isn't cheaply accessible
// without opening a handle); the birthtime fallback relies on extstat's
// BirthTime there instead, which Windows exposes natively.
func platformInode(_ string, _ bool) uint64 {
	return 0
}
