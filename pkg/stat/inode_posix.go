//go:build !windows

package stat

import "golang.org/x/sys/unix"

// platformInode extracts the inode number (and nothing else; the other
// fields of the raw stat result are discarded) by issuing a raw stat/lstat
// syscall directly through
// golang.org/x/sys/unix, the same way the teacher's POSIX-specific
// metadata accessors do (e.g. pkg/filesystem/directory_posix.go's use of
// unix.Fstatat) rather than through os.FileInfo.Sys(), whose dynamic type
// is the standard library's own syscall.Stat_t and so can't be asserted to
// unix.Stat_t directly.
func platformInode(path string, followLinks bool) uint64 {
	var raw unix.Stat_t
	var err error
	if followLinks {
		err = unix.Stat(path, &raw)
	} else {
		err = unix.Lstat(path, &raw)
	}
	if err != nil {
		return 0
	}
	return uint64(raw.Ino)
}
