package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/build"
	"github.com/albertocavalcante/ccrun/cmd/ccrun/internal/langs"
)

// Target is the project being watched. *build.Builder implements it.
type Target interface {
	Scan(ctx context.Context) ([]string, error)
	Build(ctx context.Context) (*build.Report, error)
	BuildRoot() string
}

// Config configures the watcher.
type Config struct {
	Root     string
	Target   Target
	Mode     string
	Debounce int // debounce window in milliseconds
	Verbose  bool
	NoColor  bool
	JSON     bool
	Writer   io.Writer
}

// Watcher watches the project tree and runs an incremental build after
// every burst of source changes.
type Watcher struct {
	config     Config
	fsWatcher  *fsnotify.Watcher
	debouncer  *Debouncer
	logger     *Logger
	extensions map[string]bool
	ignoreDirs map[string]bool
	buildRoot  string

	ctxMu sync.Mutex
	ctx   context.Context

	// buildMu prevents concurrent builds
	buildMu sync.Mutex
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Target == nil {
		return nil, errors.New("watch: no build target")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		config:     cfg,
		fsWatcher:  fsWatcher,
		extensions: langs.ExtensionSet(),
		ignoreDirs: langs.IgnoreDirSet(nil),
		buildRoot:  filepath.Clean(cfg.Target.BuildRoot()),
		ctx:        context.Background(),
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}

	window := time.Duration(cfg.Debounce) * time.Millisecond
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	w.debouncer = NewDebouncer(window, w.handleChanged)

	return w, nil
}

// Run builds once, then watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.ctxMu.Lock()
	w.ctx = ctx
	w.ctxMu.Unlock()
	defer w.debouncer.Stop()

	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch project: %w", err)
	}

	files, err := w.config.Target.Scan(ctx)
	if err != nil {
		return err
	}
	w.logger.Ready(len(files), w.config.Mode, w.config.Root)
	w.build()

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// Stats returns the session statistics.
func (w *Watcher) Stats() Stats {
	return w.logger.Stats()
}

// skipDir reports whether a directory is never watched.
func (w *Watcher) skipDir(path string) bool {
	if filepath.Clean(path) == w.buildRoot {
		return true
	}
	if filepath.Clean(path) == filepath.Clean(w.config.Root) {
		return false
	}
	return langs.IsIgnoredDir(filepath.Base(path), w.ignoreDirs)
}

// addRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", path))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w for %s: %v\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
		}
		return nil
	})
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// inBuildRoot reports whether path lies inside the build output root.
func (w *Watcher) inBuildRoot(path string) bool {
	rel, err := filepath.Rel(w.buildRoot, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.inBuildRoot(path) {
		return
	}

	// New directories are watched; their files arrive as separate events.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.skipDir(path) {
				return
			}
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			return
		}
	}

	if !w.extensions[filepath.Ext(path)] {
		return
	}

	var changeType ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = ChangeAdded
	case event.Has(fsnotify.Write):
		changeType = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		changeType = ChangeDeleted
	default:
		return // Ignore chmod events
	}

	relPath, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	w.logger.FileChanged(relPath, changeType)
	w.debouncer.Add(relPath)
}

// handleChanged is called when the debouncer flushes.
func (w *Watcher) handleChanged(paths []string) {
	if len(paths) == 0 {
		return
	}
	w.logger.Building(paths)
	w.build()
}

// build runs one incremental build. The tracker decides what is stale, so
// the changed paths only serve as the trigger.
func (w *Watcher) build() {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	w.ctxMu.Lock()
	ctx := w.ctx
	w.ctxMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	report, err := w.config.Target.Build(ctx)
	if err != nil {
		w.logger.Error(err)
		return
	}
	for _, warn := range report.Warnings {
		w.logger.Warn(warn)
	}
	w.logger.Built(BuildSummary{
		ID:       report.ID,
		Compiled: report.Compiled,
		Linked:   report.Linked,
		UpToDate: report.UpToDate,
		Duration: report.Duration,
	})
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")
