package runner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/runner"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based tests need a POSIX sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestFindTool_BundledToolchain(t *testing.T) {
	tmpDir := t.TempDir()

	ccrunPath := filepath.Join(tmpDir, "ccrun")
	gccPath := filepath.Join(tmpDir, "toolchain", "bin", "ccrun-test-gcc")

	if err := os.WriteFile(ccrunPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(gccPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(gccPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithExecutablePath(ccrunPath))
	got, err := r.FindTool("ccrun-test-gcc")
	if err != nil {
		t.Fatalf("FindTool() error = %v", err)
	}
	if got != gccPath {
		t.Errorf("FindTool() = %q, want %q", got, gccPath)
	}
}

func TestFindTool_SiblingBinary(t *testing.T) {
	tmpDir := t.TempDir()

	ccrunPath := filepath.Join(tmpDir, "ccrun")
	siblingPath := filepath.Join(tmpDir, "ccrun-test-windres")

	if err := os.WriteFile(ccrunPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(siblingPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithExecutablePath(ccrunPath))
	got, err := r.FindTool("ccrun-test-windres")
	if err != nil {
		t.Fatalf("FindTool() error = %v", err)
	}
	if got != siblingPath {
		t.Errorf("FindTool() = %q, want %q", got, siblingPath)
	}
}

func TestFindTool_RelativePath(t *testing.T) {
	projectDir := t.TempDir()
	toolPath := filepath.Join(projectDir, "tools", "cc")

	if err := os.MkdirAll(filepath.Dir(toolPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(toolPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithDir(projectDir))
	got, err := r.FindTool("tools/cc")
	if err != nil {
		t.Fatalf("FindTool() error = %v", err)
	}
	if got != toolPath {
		t.Errorf("FindTool() = %q, want %q", got, toolPath)
	}

	if _, err := r.FindTool("tools/missing"); !errors.Is(err, runner.ErrToolNotFound) {
		t.Errorf("FindTool() error = %v, want ErrToolNotFound", err)
	}
}

func TestFindTool_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	ccrunPath := filepath.Join(tmpDir, "ccrun")

	if err := os.WriteFile(ccrunPath, []byte("fake"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", tmpDir)

	r := runner.New(runner.WithExecutablePath(ccrunPath))
	_, err := r.FindTool("ccrun-definitely-missing-cc")
	if !errors.Is(err, runner.ErrToolNotFound) {
		t.Errorf("FindTool() error = %v, want ErrToolNotFound", err)
	}
	if _, err := r.FindTool(""); !errors.Is(err, runner.ErrToolNotFound) {
		t.Errorf("FindTool(\"\") error = %v, want ErrToolNotFound", err)
	}
}

func TestRun_CapturesOutput(t *testing.T) {
	requireShell(t)

	var stdout, stderr bytes.Buffer
	r := runner.New(runner.WithStdout(&stdout), runner.WithStderr(&stderr))

	err := r.Run(context.Background(), []runner.Command{
		{Args: []string{"sh", "-c", "echo out; echo err >&2"}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "out" {
		t.Errorf("stdout = %q, want out", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "err" {
		t.Errorf("stderr = %q, want err", stderr.String())
	}
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	var out bytes.Buffer
	r := runner.New(runner.WithDir(dir), runner.WithStdout(&out), runner.WithStderr(&out))

	err := r.Run(context.Background(), []runner.Command{
		{Args: []string{"sh", "-c", "exit 0"}},
		{Args: []string{"sh", "-c", "exit 3"}},
		{Args: []string{"sh", "-c", "touch marker"}},
	})

	var exitErr *runner.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("ExitError.Code = %d, want 3", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "sh exited with code 3") {
		t.Errorf("ExitError.Error() = %q", exitErr.Error())
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("commands after a failure must not run")
	}
}

func TestRun_CommandDir(t *testing.T) {
	requireShell(t)

	base := t.TempDir()
	sub := filepath.Join(base, "bin")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	r := runner.New(runner.WithDir(base), runner.WithStdout(&bytes.Buffer{}))
	err := r.Run(context.Background(), []runner.Command{
		{Args: []string{"sh", "-c", "touch here"}, Dir: sub},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(sub, "here")); err != nil {
		t.Error("Command.Dir should override the runner directory")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.New()
	err := r.Run(ctx, []runner.Command{{Args: []string{"sh", "-c", "exit 0"}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_EmptyCommand(t *testing.T) {
	if err := runner.New().RunOne(context.Background(), runner.Command{}); err == nil {
		t.Error("RunOne() expected error for empty command")
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"gcc", "-c", "main.c"}, "gcc -c main.c"},
		{[]string{"gcc", "-DNAME=a b"}, `gcc "-DNAME=a b"`},
		{[]string{"prog", ""}, `prog ""`},
	}

	for _, tt := range tests {
		if got := (runner.Command{Args: tt.args}).String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
