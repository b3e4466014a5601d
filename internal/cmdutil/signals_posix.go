//go:build !windows

package cmdutil

import (
	"os"
	"syscall"
)

// TerminationSignals are the signals treewatch's CLI treats as requesting a
// graceful shutdown of an in-progress watch.
var TerminationSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}
