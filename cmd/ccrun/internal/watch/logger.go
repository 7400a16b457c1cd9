package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger prints watch mode events, as text for people or as one JSON
// object per line for tools.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	statsMu sync.Mutex
	stats   Stats
}

// Stats tracks statistics for the watch session.
type Stats struct {
	Builds    int
	Failures  int
	StartTime time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// BuildSummary is what the logger reports about a finished build.
type BuildSummary struct {
	ID       string
	Compiled int
	Linked   bool
	UpToDate bool
	Duration time.Duration
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats: Stats{
			StartTime: time.Now(),
		},
	}
}

// Ready logs that the watcher is armed.
func (l *Logger) Ready(fileCount int, mode, path string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "ready",
			"files": fileCount,
			"mode":  mode,
			"path":  path,
		})
		return
	}

	l.printf("ccrun: watching %d files in %s (%s)\n", fileCount, path, mode)
	l.println("ccrun: ready")
	l.println()
}

// FileChanged logs a file change event. Text output shows it only in
// verbose mode.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Building logs that a build is starting because of paths.
func (l *Logger) Building(paths []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "building",
			"paths": paths,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	if len(paths) == 1 {
		l.printf("[%s] %s changed, building...\n", l.timestamp(), paths[0])
	} else {
		l.printf("[%s] %d files changed, building...\n", l.timestamp(), len(paths))
	}
}

// Built logs a successful build.
func (l *Logger) Built(s BuildSummary) {
	l.statsMu.Lock()
	l.stats.Builds++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":      "built",
			"id":         s.ID,
			"compiled":   s.Compiled,
			"linked":     s.Linked,
			"up_to_date": s.UpToDate,
			"duration":   s.Duration.String(),
			"time":       time.Now().Format(time.RFC3339),
		})
		return
	}

	checkmark := l.colorize("✓", ChangeAdded)
	if s.UpToDate {
		l.printf("[%s] %s up to date\n", l.timestamp(), checkmark)
		return
	}
	l.printf("[%s] %s built (%d compiled, linked: %v) in %s\n",
		l.timestamp(), checkmark, s.Compiled, s.Linked, s.Duration.Round(time.Millisecond))
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.statsMu.Lock()
	l.stats.Failures++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	xmark := l.colorize("✗", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Warn logs a non-fatal problem. It does not count as a failure.
func (l *Logger) Warn(err error) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "warning",
			"warning": err.Error(),
			"time":    time.Now().Format(time.RFC3339),
		})
		return
	}

	l.printf("[%s] %s warning: %v\n", l.timestamp(), l.colorize("!", ChangeModified), err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":    "shutdown",
			"builds":   stats.Builds,
			"errors":   stats.Failures,
			"duration": time.Since(stats.StartTime).String(),
		})
		return
	}

	l.println()
	l.printf("ccrun: shutting down (%d builds, %d errors)\n", stats.Builds, stats.Failures)
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change type.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

// Output errors are ignored; the log is informational.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}
