// Package build drives the C/C++ toolchain for a project: it scans the
// sources, asks the incremental tracker what is stale, runs the compile
// and link steps, and commits the fingerprint record only on success.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/fsutil"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/incremental"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/runner"
	"github.com/albertocavalcante/ccrun/internal/log"
	"github.com/albertocavalcante/ccrun/pkg/config"
)

var (
	// ErrNoSources is returned when the include rules match no source or
	// resource file.
	ErrNoSources = errors.New("no files to compile, check the include rules")

	// ErrNoBinary is returned by Run when the binary has not been built.
	ErrNoBinary = errors.New("executable not found, build first")
)

// Executor runs toolchain commands in order, stopping at the first failure.
// *runner.Runner implements it.
type Executor interface {
	Run(ctx context.Context, cmds []runner.Command) error
}

// Builder builds and runs one project.
type Builder struct {
	// Root is the absolute project root.
	Root    string
	Config  *config.Config
	Runner  Executor
	Tracker *incremental.Tracker
	// Out receives progress lines. nil discards them.
	Out io.Writer
}

// New creates a builder whose fingerprint record lives in the configured
// build output root.
func New(root string, cfg *config.Config, exec Executor) *Builder {
	b := &Builder{
		Root:   root,
		Config: cfg,
		Runner: exec,
	}
	b.Tracker = incremental.NewTracker(
		incremental.NewJSONStore(b.BuildRoot()),
		incremental.NewAnalyzer(root, cfg.Build.LibPrefix),
	)
	return b
}

// Report summarizes a build.
type Report struct {
	// ID identifies this build in logs and watch events.
	ID       string               `json:"id"`
	Mode     config.Mode          `json:"mode"`
	Analysis incremental.Analysis `json:"analysis"`
	Steps    []Step               `json:"steps"`
	Compiled int                  `json:"compiled"`
	Linked   bool                 `json:"linked"`
	UpToDate bool                 `json:"up_to_date"`
	Binary   string               `json:"binary"`
	Duration time.Duration        `json:"duration"`
	Warnings fsutil.Warnings      `json:"-"`
}

// Mode returns the active build mode.
func (b *Builder) Mode() config.Mode {
	return b.Config.Build.Mode
}

// BuildRoot returns the absolute build output root.
func (b *Builder) BuildRoot() string {
	return b.abs(b.Config.Build.Path)
}

// BinDir returns the absolute directory holding the binary for the
// active mode.
func (b *Builder) BinDir() string {
	return filepath.Join(b.BuildRoot(), string(b.Mode()), "bin")
}

// BinName returns the binary file name: the configured name, or the
// project directory name.
func (b *Builder) BinName() string {
	name := b.Config.Build.BinName
	if name == "" {
		name = filepath.Base(b.Root)
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return name
}

// BinaryPath returns the absolute path of the binary.
func (b *Builder) BinaryPath() string {
	return filepath.Join(b.BinDir(), b.BinName())
}

func (b *Builder) relBinary() string {
	return filepath.Join(b.Config.Build.Path, string(b.Mode()), "bin", b.BinName())
}

// Scan enumerates the project files selected by the include and exclude
// rules. The build output root is never scanned.
func (b *Builder) Scan(ctx context.Context) ([]string, error) {
	var skip []string
	if !filepath.IsAbs(b.Config.Build.Path) {
		skip = append(skip, b.Config.Build.Path)
	}
	s, err := incremental.NewScanner(incremental.ScanConfig{
		Root:      b.Root,
		Includes:  b.Config.Build.Includes,
		Excludes:  b.Config.Build.Excludes,
		SkipPaths: skip,
	})
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx)
}

// Build brings the binary for the active mode up to date.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	logger := log.Component("build")

	if err := b.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := b.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	if !hasCompilable(files) {
		return nil, ErrNoSources
	}

	ids := incremental.ComputeConfigIDs(b.Config)
	pending, err := b.Tracker.Prepare(ctx, files, b.Mode(), ids)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze changes: %w", err)
	}

	plan := b.Plan(files, &pending.Analysis)
	report := &Report{
		ID:       uuid.NewString(),
		Mode:     b.Mode(),
		Analysis: pending.Analysis,
		Steps:    plan.Steps,
		Binary:   b.BinaryPath(),
	}

	if plan.UpToDate() {
		report.UpToDate = true
		b.commit(pending, report)
		report.Duration = time.Since(start)
		logger.Debug("up to date", "mode", b.Mode())
		b.logWarnings(report.Warnings)
		return report, nil
	}

	report.Warnings.Merge(fsutil.RemoveFile(b.BinaryPath()))
	dirs := []string{b.BinDir()}
	for _, s := range plan.Steps {
		dirs = append(dirs, filepath.Dir(b.abs(s.Output)))
	}
	report.Warnings.Merge(fsutil.MkdirAll(dirs...))

	for i, s := range plan.Steps {
		b.printf("[%d/%d] %s %s\n", i+1, len(plan.Steps), s.Kind, stepTarget(s))
		if err := b.Runner.Run(ctx, []runner.Command{s.Command}); err != nil {
			pending.Discard()
			report.Duration = time.Since(start)
			b.logWarnings(report.Warnings)
			return report, fmt.Errorf("%s %s: %w", s.Kind, stepTarget(s), err)
		}
		if s.Kind == StepLink {
			report.Linked = true
		} else {
			report.Compiled++
		}
	}

	for _, dir := range b.Config.Run.Publics {
		report.Warnings.Merge(fsutil.CopyDir(b.abs(dir), b.BinDir()))
	}
	b.commit(pending, report)
	report.Duration = time.Since(start)

	logger.Info("build finished",
		"id", report.ID,
		"mode", b.Mode(),
		"compiled", report.Compiled,
		"linked", report.Linked,
		"duration", report.Duration)
	b.logWarnings(report.Warnings)
	return report, nil
}

// commit persists the record; a failure to save is only a warning because
// the next build will simply redo the work.
func (b *Builder) commit(pending *incremental.Pending, report *Report) {
	if err := pending.Commit(); err != nil {
		report.Warnings.Add(fmt.Errorf("failed to save build record: %w", err))
	}
}

// Run executes the built binary from its directory with the configured
// arguments followed by extra.
func (b *Builder) Run(ctx context.Context, extra []string) error {
	bin := b.BinaryPath()
	if !fsutil.Exists(bin) {
		return ErrNoBinary
	}
	args := append([]string{bin}, b.Config.Run.Args...)
	args = append(args, extra...)

	log.Component("build").Debug("running", "binary", bin, "args", args[1:])
	return b.Runner.Run(ctx, []runner.Command{{Args: args, Dir: b.BinDir()}})
}

// Rebuild removes the build output root and builds from scratch.
func (b *Builder) Rebuild(ctx context.Context) (*Report, error) {
	w := b.Clean()
	report, err := b.Build(ctx)
	if report != nil {
		report.Warnings = append(w, report.Warnings...)
	}
	return report, err
}

// Clean removes the build output root, including the record of every mode.
func (b *Builder) Clean() fsutil.Warnings {
	root := b.BuildRoot()
	if filepath.Clean(root) == filepath.Clean(b.Root) {
		var w fsutil.Warnings
		w.Add(fmt.Errorf("refusing to remove project root %s", root))
		return w
	}
	w := fsutil.RemoveAll(root)
	b.logWarnings(w)
	return w
}

// Status describes the incremental state without building.
type Status struct {
	Mode     config.Mode          `json:"mode"`
	Files    int                  `json:"files"`
	Tracked  int                  `json:"tracked"`
	HasState bool                 `json:"has_state"`
	Record   string               `json:"record"`
	Analysis incremental.Analysis `json:"analysis"`
}

// Status analyzes the project against the last successful build.
func (b *Builder) Status(ctx context.Context) (*Status, error) {
	files, err := b.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	a, err := b.Tracker.Status(ctx, files, b.Mode(), incremental.ComputeConfigIDs(b.Config))
	if err != nil {
		return nil, err
	}
	return &Status{
		Mode:     b.Mode(),
		Files:    len(files),
		Tracked:  b.Tracker.TrackedFileCount(b.Mode()),
		HasState: b.Tracker.HasState(),
		Record:   b.Tracker.Store().Path(),
		Analysis: *a,
	}, nil
}

func (b *Builder) printf(format string, args ...any) {
	if b.Out != nil {
		fmt.Fprintf(b.Out, format, args...)
	}
}

func (b *Builder) logWarnings(w fsutil.Warnings) {
	logger := log.Component("build")
	for _, err := range w {
		logger.Warn(err.Error())
	}
}

func stepTarget(s Step) string {
	if s.Input != "" {
		return filepath.ToSlash(s.Input)
	}
	return filepath.ToSlash(s.Output)
}

func hasCompilable(files []string) bool {
	for _, f := range files {
		if langs.IsSource(f) || langs.IsResource(f) {
			return true
		}
	}
	return false
}
