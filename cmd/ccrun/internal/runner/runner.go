// Package runner locates toolchain executables and runs them.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/albertocavalcante/ccrun/internal/log"
)

// ErrToolNotFound is returned when a toolchain executable cannot be located.
var ErrToolNotFound = errors.New("tool not found")

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	name := "command"
	if len(e.Args) > 0 {
		name = filepath.Base(e.Args[0])
	}
	return fmt.Sprintf("%s exited with code %d", name, e.Code)
}

// Command is one process invocation. Args[0] is the tool name or path.
type Command struct {
	Args []string
	// Dir overrides the runner's working directory for this command.
	Dir string
}

// String renders the command line for display.
func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// Runner handles finding and executing toolchain binaries.
type Runner struct {
	executablePath string // Path to ccrun executable (for finding a bundled toolchain)
	dir            string
	stdin          io.Reader
	stdout         io.Writer
	stderr         io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutablePath sets the path to the ccrun executable.
// Used primarily for testing.
func WithExecutablePath(path string) Option {
	return func(r *Runner) {
		r.executablePath = path
	}
}

// WithDir sets the working directory commands run in. Relative tool
// paths are resolved against it.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithStdin sets the stdin of launched processes.
func WithStdin(in io.Reader) Option {
	return func(r *Runner) {
		r.stdin = in
	}
}

// WithStdout sets the stdout of launched processes.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets the stderr of launched processes.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// New creates a new Runner with the given options. By default processes
// inherit the standard streams of ccrun.
func New(opts ...Option) *Runner {
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindTool locates an executable using the following search order:
//  1. An explicit path (absolute, or containing a separator, resolved
//     against the working directory)
//  2. A bundled toolchain next to ccrun (<exe dir>/toolchain/bin, <exe dir>)
//  3. PATH lookup
func (r *Runner) FindTool(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrToolNotFound)
	}

	if filepath.IsAbs(name) || strings.ContainsAny(name, `/\`) {
		path := name
		if !filepath.IsAbs(path) && r.dir != "" {
			path = filepath.Join(r.dir, path)
		}
		if found := withExeSuffix(path); found != "" {
			return found, nil
		}
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if path := r.findBundled(name); path != "" {
		return path, nil
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
}

// findBundled looks for a toolchain shipped alongside the ccrun binary.
func (r *Runner) findBundled(name string) string {
	exe := r.executablePath
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return ""
		}
	}

	dir := filepath.Dir(exe)
	candidates := []string{
		filepath.Join(dir, "toolchain", "bin", name),
		filepath.Join(dir, name),
	}
	for _, candidate := range candidates {
		if found := withExeSuffix(candidate); found != "" {
			return found
		}
	}
	return ""
}

// Run executes commands in order and stops at the first failure. A
// non-zero exit is reported as *ExitError.
func (r *Runner) Run(ctx context.Context, cmds []Command) error {
	for _, c := range cmds {
		if err := r.RunOne(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// RunOne executes a single command and waits for it to complete.
func (r *Runner) RunOne(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return errors.New("empty command")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.FindTool(c.Args[0])
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, path, c.Args[1:]...)
	cmd.Dir = r.dir
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	log.Component("runner").Debug("exec", "cmd", c.String(), "dir", cmd.Dir)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Args: c.Args, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", c.Args[0], err)
	}
	return nil
}

// withExeSuffix returns path if it names a regular file, trying the
// .exe suffix on Windows.
func withExeSuffix(path string) string {
	if fileExists(path) {
		return path
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(path), ".exe") && fileExists(path+".exe") {
		return path + ".exe"
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
