package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/treewatch/treewatch/pkg/stat"
	"github.com/treewatch/treewatch/pkg/watch"
)

// colorEnabled mirrors the teacher's output auto-detection: color is used
// only when standard output is an actual terminal, never when it's been
// redirected to a file or pipe.
var colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

func init() {
	color.NoColor = !colorEnabled
}

// printEvent renders a single change event as a human-readable line:
//
//	12:04:05  create  /path/to/file  (1.2 kB)
//	12:04:07  update  /path/to/file  (3.4 kB)
//	12:04:09  delete  /path/to/file
func printEvent(e watch.ChangeEvent) {
	timestamp := time.Now().Format("15:04:05")
	label := eventLabel(e.Kind)

	line := fmt.Sprintf("%s  %s  %s", timestamp, label, e.Path)
	if size, ok := eventSize(e); ok {
		line = fmt.Sprintf("%s  (%s)", line, humanize.Bytes(uint64(size)))
	}
	fmt.Println(line)
}

func eventLabel(kind watch.EventKind) string {
	switch kind {
	case watch.EventCreate:
		return color.GreenString("create")
	case watch.EventUpdate:
		return color.CyanString("update")
	case watch.EventDelete:
		return color.RedString("delete")
	default:
		return kind.String()
	}
}

func eventSize(e watch.ChangeEvent) (int64, bool) {
	snapshot := e.Current
	if snapshot == nil {
		return 0, false
	}
	if snapshot.Kind != stat.KindFile {
		return 0, false
	}
	return snapshot.Size, true
}
