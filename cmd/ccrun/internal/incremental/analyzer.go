package incremental

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
	"github.com/albertocavalcante/ccrun/internal/log"
	"github.com/albertocavalcante/ccrun/pkg/config"
)

// ErrReservedPath is returned when a tracked file path collides with the
// reserved configuration keys.
var ErrReservedPath = errors.New("file path collides with a reserved record key")

// Analyzer classifies a file list against a prior Record.
type Analyzer struct {
	// FS is the project root. Paths are project-relative and slash-separated.
	FS fs.FS

	// Propagator expands header changes. nil means PrefixPropagator with
	// DefaultLibPrefix.
	Propagator Propagator

	// Workers bounds concurrent fingerprinting. <= 0 means GOMAXPROCS.
	Workers int
}

// NewAnalyzer creates an analyzer rooted at the project directory.
func NewAnalyzer(root, libPrefix string) *Analyzer {
	return &Analyzer{
		FS:         os.DirFS(root),
		Propagator: PrefixPropagator{LibPrefix: libPrefix},
	}
}

// AnalyzeInput carries everything one pass depends on. Nothing is read
// from ambient state.
type AnalyzeInput struct {
	// Files is the enumerated file list, already include/exclude filtered.
	Files []string
	// Record is the last known-good record. It is never modified.
	Record Record
	// Mode selects the ModeRecord to compare against.
	Mode config.Mode
	// IDs are the current configuration fingerprints.
	IDs ConfigIDs
}

// Result is an Analysis together with the record that should be persisted
// if, and only if, the build it drives succeeds.
type Result struct {
	Analysis Analysis
	Record   Record
}

type fingerprint struct {
	hash       string
	header     string
	headerHash string
}

// Analyze runs one staleness pass.
func (a *Analyzer) Analyze(ctx context.Context, in AnalyzeInput) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range in.Files {
		if IsReservedKey(f) {
			return nil, fmt.Errorf("%w: %s", ErrReservedPath, f)
		}
	}

	logger := log.Component("incremental")
	mode := string(in.Mode)

	record := in.Record.Clone()
	record.EnsureModes(config.Modes)
	old := record[mode].Clone()

	cur := ModeRecord{}
	in.IDs.Apply(cur)

	fps, err := a.fingerprint(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	var diff []string
	seen := make(map[string]bool)
	mark := func(path, hash string) {
		cur[path] = hash
		log.Trace(logger, "fingerprint", "path", path, "hash", hash)
		if prev, ok := old[path]; ok && prev == hash {
			return
		}
		if !seen[path] {
			seen[path] = true
			diff = append(diff, path)
			logger.Debug("file changed", "path", path)
		}
	}
	for i, f := range in.Files {
		mark(f, fps[i].hash)
		if fps[i].header != "" {
			mark(fps[i].header, fps[i].headerHash)
		}
	}

	propagator := a.Propagator
	if propagator == nil {
		propagator = PrefixPropagator{LibPrefix: DefaultLibPrefix}
	}
	diff = propagator.Propagate(diff, in.Files)

	record[mode] = cur

	oldIDs, newIDs := old.IDs(), cur.IDs()
	analysis := Analysis{
		DiffFiles:  diff,
		Rebuild:    oldIDs.Build != newIDs.Build,
		RebuildRes: oldIDs.BuildRes != newIDs.BuildRes,
		Relink:     oldIDs.Link != newIDs.Link || old.FileCount() != cur.FileCount(),
	}
	if analysis.DiffFiles == nil {
		analysis.DiffFiles = []string{}
	}

	logger.Debug("analysis complete",
		"mode", mode,
		"files", len(in.Files),
		"changed", len(analysis.DiffFiles),
		"rebuild", analysis.Rebuild,
		"rebuild_res", analysis.RebuildRes,
		"relink", analysis.Relink)

	return &Result{Analysis: analysis, Record: record}, nil
}

// fingerprint hashes every file and its paired header concurrently. The
// result is indexed like files so merging stays order-independent.
func (a *Analyzer) fingerprint(ctx context.Context, files []string) ([]fingerprint, error) {
	out := make([]fingerprint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := HashFile(a.FS, f)
			if err != nil {
				return err
			}
			out[i].hash = h

			header, ok := langs.PairedHeader(f)
			if !ok || !fileExists(a.FS, header) {
				return nil
			}
			hh, err := HashFile(a.FS, header)
			if err != nil {
				return err
			}
			out[i].header = header
			out[i].headerHash = hh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Analyzer) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func fileExists(fsys fs.FS, path string) bool {
	info, err := fs.Stat(fsys, path)
	return err == nil && !info.IsDir()
}
