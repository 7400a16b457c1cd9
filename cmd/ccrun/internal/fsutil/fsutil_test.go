package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestMkdirAll(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a", "b")
	b := filepath.Join(tmpDir, "c")

	if w := MkdirAll(a, b); !w.Empty() {
		t.Fatalf("MkdirAll() warnings = %v", w)
	}
	for _, dir := range []string{a, b} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s should be a directory", dir)
		}
	}

	// A file in the way is a warning, not a panic or an error return.
	blocker := filepath.Join(tmpDir, "file")
	write(t, blocker, "x")
	w := MkdirAll(filepath.Join(blocker, "sub"))
	if len(w) != 1 {
		t.Errorf("expected 1 warning, got %v", w)
	}
}

func TestRemoveAll(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "out")
	write(t, filepath.Join(dir, "x", "y.o"), "obj")

	if w := RemoveAll(dir, filepath.Join(tmpDir, "missing")); !w.Empty() {
		t.Fatalf("RemoveAll() warnings = %v", w)
	}
	if Exists(dir) {
		t.Error("directory should be removed")
	}
}

func TestRemoveFile(t *testing.T) {
	tmpDir := t.TempDir()
	bin := filepath.Join(tmpDir, "app")
	write(t, bin, "elf")

	if w := RemoveFile(bin); !w.Empty() {
		t.Fatalf("RemoveFile() warnings = %v", w)
	}
	if Exists(bin) {
		t.Error("file should be removed")
	}
	if w := RemoveFile(bin); !w.Empty() {
		t.Errorf("removing a missing file should not warn, got %v", w)
	}
}

func TestCopyDir(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "public")
	dst := filepath.Join(tmpDir, "bin")

	write(t, filepath.Join(src, "config.ini"), "new config")
	write(t, filepath.Join(src, "assets", "logo.png"), "png")
	write(t, filepath.Join(dst, "config.ini"), "user edited")

	if w := CopyDir(src, dst); !w.Empty() {
		t.Fatalf("CopyDir() warnings = %v", w)
	}

	if got := read(t, filepath.Join(dst, "assets", "logo.png")); got != "png" {
		t.Errorf("logo.png = %q, want png", got)
	}
	if got := read(t, filepath.Join(dst, "config.ini")); got != "user edited" {
		t.Errorf("existing file should be kept, got %q", got)
	}
}

func TestCopyDirMissingSource(t *testing.T) {
	tmpDir := t.TempDir()
	w := CopyDir(filepath.Join(tmpDir, "nope"), filepath.Join(tmpDir, "bin"))
	if len(w) != 1 {
		t.Fatalf("expected 1 warning, got %v", w)
	}
	if !errors.Is(w[0], os.ErrNotExist) {
		t.Errorf("warning should wrap ErrNotExist, got %v", w[0])
	}
}

func TestCopyDirSourceIsFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "file")
	write(t, src, "x")
	if w := CopyDir(src, filepath.Join(tmpDir, "bin")); len(w) != 1 {
		t.Errorf("expected 1 warning, got %v", w)
	}
}

func TestWarnings(t *testing.T) {
	var w Warnings
	w.Add(nil)
	if !w.Empty() || w.Err() != nil {
		t.Fatal("nil errors should not be recorded")
	}

	w.Add(errors.New("one"))
	var other Warnings
	other.Add(errors.New("two"))
	w.Merge(other)

	if len(w) != 2 {
		t.Fatalf("len = %d, want 2", len(w))
	}
	if w.Error() != "one; two" {
		t.Errorf("Error() = %q", w.Error())
	}
	if w.Err() == nil {
		t.Error("Err() should be non-nil")
	}
}
