package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger    atomic.Pointer[slog.Logger]
	level     = new(slog.LevelVar)
	verbosity atomic.Int32
)

func init() {
	// Warnings are visible before flags are parsed.
	InitWithOutput(VerbosityWarn, FormatText, os.Stderr)
}

// Init configures the global logger from the -v and --log-format flags.
func Init(v int, format Format) {
	InitWithOutput(v, format, os.Stderr)
}

// InitWithOutput is Init with an explicit destination.
func InitWithOutput(v int, format Format, w io.Writer) {
	SetVerbosity(v)
	l := slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: format,
		Output: w,
	}))
	logger.Store(l)
	slog.SetDefault(l)
}

// SetVerbosity changes the level of the current logger in place.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	level.Set(VerbosityToLevel(v))
}

// Verbosity returns the current -v level.
func Verbosity() int {
	return int(verbosity.Load())
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Component returns the global logger tagged with component=name.
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}

// Trace logs at LevelTrace on l.
func Trace(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}
