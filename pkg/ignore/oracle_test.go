package ignore

import "testing"

func TestIgnoreHiddenFiles(t *testing.T) {
	o := Options{HiddenFiles: true}
	if !o.Ignore(".git", ".git") {
		t.Fatal("expected hidden file to be ignored")
	}
	if o.Ignore("visible.txt", "visible.txt") {
		t.Fatal("did not expect visible file to be ignored")
	}
}

func TestIgnoreCommonPatterns(t *testing.T) {
	o := Options{CommonPatterns: true}
	if !o.Ignore("node_modules", "node_modules") {
		t.Fatal("expected node_modules to be ignored")
	}
	if !o.Ignore("src/foo.swp", "foo.swp") {
		t.Fatal("expected swap file to be ignored")
	}
	if o.Ignore("src/main.go", "main.go") {
		t.Fatal("did not expect main.go to be ignored")
	}
}

func TestIgnoreCustomPatterns(t *testing.T) {
	o := Options{CustomPatterns: []string{"**/*.tmp", "build"}}
	if !o.Ignore("a/b/c.tmp", "c.tmp") {
		t.Fatal("expected *.tmp glob to match nested path")
	}
	if !o.Ignore("build", "build") {
		t.Fatal("expected literal pattern to match")
	}
	if o.Ignore("a/b/c.go", "c.go") {
		t.Fatal("did not expect non-matching path to be ignored")
	}
}

func TestIgnorePaths(t *testing.T) {
	o := Options{Paths: []string{"secrets"}}
	if !o.Ignore("secrets", "secrets") {
		t.Fatal("expected explicit path to be ignored")
	}
}
