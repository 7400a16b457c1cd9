package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/build"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/fsutil"
)

type fakeTarget struct {
	root string

	mu     sync.Mutex
	builds int
	err    error
	built  chan struct{}
}

func newFakeTarget(root string) *fakeTarget {
	return &fakeTarget{root: root, built: make(chan struct{}, 16)}
}

func (f *fakeTarget) Scan(context.Context) ([]string, error) {
	return []string{"main.c"}, nil
}

func (f *fakeTarget) Build(context.Context) (*build.Report, error) {
	f.mu.Lock()
	f.builds++
	err := f.err
	f.mu.Unlock()
	f.built <- struct{}{}
	if err != nil {
		return nil, err
	}
	var w fsutil.Warnings
	w.Add(errors.New("public dir missing"))
	return &build.Report{Compiled: 1, Linked: true, Warnings: w}, nil
}

func (f *fakeTarget) BuildRoot() string {
	return filepath.Join(f.root, ".build")
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds
}

func newTestWatcher(t *testing.T, root string, target Target) (*Watcher, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(Config{Root: root, Target: target, Debounce: 20, Writer: &lockedWriter{w: &buf}, NoColor: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, &buf
}

// lockedWriter serializes writes from the watch loop and timer goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestIsWatchLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"not exist", &os.PathError{Op: "watch", Path: "/foo", Err: os.ErrNotExist}, false},
		{"regular error", os.ErrPermission, false},
		{"inotify limit", errors.New("no space left on device"), true},
		{"fd limit", errors.New("too many open files"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWatchLimitError(tt.err); got != tt.expected {
				t.Errorf("isWatchLimitError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestNewWatcher(t *testing.T) {
	root := t.TempDir()
	w, _ := newTestWatcher(t, root, newFakeTarget(root))

	if w.fsWatcher == nil {
		t.Error("fsWatcher is nil")
	}
	if w.logger == nil || w.debouncer == nil {
		t.Error("logger and debouncer should be set")
	}
	for _, ext := range []string{".c", ".cpp", ".h", ".hpp", ".rc"} {
		if !w.extensions[ext] {
			t.Errorf("expected extension %s", ext)
		}
	}
	for _, dir := range []string{".", "CMakeFiles"} {
		if !w.ignoreDirs[dir] {
			t.Errorf("expected ignore pattern %s", dir)
		}
	}
}

func TestNewWatcherRequiresTarget(t *testing.T) {
	if _, err := New(Config{Root: t.TempDir()}); err == nil {
		t.Error("New() without a target should fail")
	}
}

func TestHandleEventFilters(t *testing.T) {
	root := t.TempDir()
	w, _ := newTestWatcher(t, root, newFakeTarget(root))
	w.debouncer = NewDebouncer(time.Hour, func([]string) {})

	events := []fsnotify.Event{
		{Name: filepath.Join(root, "main.c"), Op: fsnotify.Write},
		{Name: filepath.Join(root, "lib", "a.h"), Op: fsnotify.Create},
		{Name: filepath.Join(root, "old.cpp"), Op: fsnotify.Remove},
		{Name: filepath.Join(root, "main.c"), Op: fsnotify.Chmod},
		{Name: filepath.Join(root, "README.md"), Op: fsnotify.Write},
		{Name: filepath.Join(root, ".build", "release", "obj", "main.c"), Op: fsnotify.Write},
	}
	for _, ev := range events {
		w.handleEvent(ev)
	}

	if got := w.debouncer.PendingCount(); got != 3 {
		t.Errorf("pending = %d, want 3 (write, create, remove of tracked extensions)", got)
	}
}

func TestSkipDir(t *testing.T) {
	root := t.TempDir()
	w, _ := newTestWatcher(t, root, newFakeTarget(root))

	tests := []struct {
		path string
		want bool
	}{
		{root, false},
		{filepath.Join(root, "src"), false},
		{filepath.Join(root, ".build"), true},
		{filepath.Join(root, ".git"), true},
		{filepath.Join(root, "cmake-build-release"), true},
	}
	for _, tt := range tests {
		if got := w.skipDir(tt.path); got != tt.want {
			t.Errorf("skipDir(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHandleChangedBuilds(t *testing.T) {
	root := t.TempDir()
	target := newFakeTarget(root)
	w, buf := newTestWatcher(t, root, target)

	w.handleChanged([]string{"main.c"})
	w.handleChanged(nil)

	if target.count() != 1 {
		t.Errorf("builds = %d, want 1", target.count())
	}
	if w.Stats().Builds != 1 {
		t.Errorf("Stats().Builds = %d, want 1", w.Stats().Builds)
	}
	if !bytes.Contains(buf.Bytes(), []byte("public dir missing")) {
		t.Errorf("build warnings should be printed: %s", buf.String())
	}
}

func TestHandleChangedBuildFailure(t *testing.T) {
	root := t.TempDir()
	target := newFakeTarget(root)
	target.err = errors.New("gcc exited with code 1")
	w, _ := newTestWatcher(t, root, target)

	w.handleChanged([]string{"main.c"})

	if w.Stats().Failures != 1 {
		t.Errorf("Failures = %d, want 1", w.Stats().Failures)
	}
}

func TestWatcherRun(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.c"), []byte("int main;"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := newFakeTarget(root)
	w, _ := newTestWatcher(t, root, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	wait := func(what string) {
		t.Helper()
		select {
		case <-target.built:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
		}
	}

	wait("initial build")

	if err := os.WriteFile(filepath.Join(root, "main.c"), []byte("int main(void);"), 0o644); err != nil {
		t.Fatal(err)
	}
	wait("rebuild after change")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcherCloseNilFsWatcher(t *testing.T) {
	w := &Watcher{fsWatcher: nil}
	if err := w.Close(); err != nil {
		t.Errorf("Close() on nil fsWatcher error = %v", err)
	}
}
