package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/treewatch/treewatch/pkg/ignore"
)

func TestListDirFiltersIgnored(t *testing.T) {
	directory := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", ".hidden"} {
		if err := os.WriteFile(filepath.Join(directory, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := ListDir(directory, "", ignore.Options{HiddenFiles: true})
	if err != nil {
		t.Fatal(err)
	}

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = true
	}
	if len(entries) != 2 || !names["a.txt"] || !names["b.txt"] {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
