package dumps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDump(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// TestFindSortsLargestFirst verifies dump discovery: .dmp matching is
// case-insensitive, other files are ignored, and results come back largest
// first.
func TestFindSortsLargestFirst(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, filepath.Join(dir, "small.dmp"), 100)
	writeDump(t, filepath.Join(dir, "big.dmp"), 500)
	writeDump(t, filepath.Join(dir, "upper.DMP"), 300)
	writeDump(t, filepath.Join(dir, "notes.txt"), 900)

	found, err := Find(dir, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 3 {
		t.Fatalf("Expected 3 dumps, got %d: %v", len(found), found)
	}
	wantOrder := []string{"big.dmp", "upper.DMP", "small.dmp"}
	for i, want := range wantOrder {
		if filepath.Base(found[i].Path) != want {
			t.Errorf("Expected %s at position %d, got %s", want, i, filepath.Base(found[i].Path))
		}
	}
	if found[0].SizeBytes != 500 {
		t.Errorf("Expected size 500, got %d", found[0].SizeBytes)
	}
}

// TestFindTieBreaksByPath verifies that equally sized dumps list in path
// order so output is stable across runs.
func TestFindTieBreaksByPath(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, filepath.Join(dir, "zeta.dmp"), 100)
	writeDump(t, filepath.Join(dir, "alpha.dmp"), 100)

	found, err := Find(dir, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 dumps, got %d", len(found))
	}
	if filepath.Base(found[0].Path) != "alpha.dmp" {
		t.Errorf("Expected alpha.dmp first, got %s", filepath.Base(found[0].Path))
	}
}

// TestFindRecursive verifies subdirectory descent is opt-in.
func TestFindRecursive(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, filepath.Join(dir, "top.dmp"), 100)
	writeDump(t, filepath.Join(dir, "sub", "nested.dmp"), 200)

	found, err := Find(dir, false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 1 || filepath.Base(found[0].Path) != "top.dmp" {
		t.Errorf("Expected only top.dmp without recursion, got %v", found)
	}

	found, err = Find(dir, true)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 dumps with recursion, got %d", len(found))
	}
	if filepath.Base(found[0].Path) != "nested.dmp" {
		t.Errorf("Expected nested.dmp first by size, got %s", filepath.Base(found[0].Path))
	}
}

// TestFindEmptyDirectory verifies an empty directory is a valid, empty
// listing rather than an error.
func TestFindEmptyDirectory(t *testing.T) {
	found, err := Find(t.TempDir(), false)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("Expected no dumps, got %v", found)
	}
}

// TestFindBadPath verifies errors for missing paths and non-directories.
func TestFindBadPath(t *testing.T) {
	if _, err := Find(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Error("Expected an error for a nonexistent directory")
	}

	file := filepath.Join(t.TempDir(), "file.dmp")
	writeDump(t, file, 10)
	if _, err := Find(file, false); err == nil {
		t.Error("Expected an error when the path is a file")
	}
}
