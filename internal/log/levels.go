// Package log is the structured logger of ccrun. It wraps log/slog with
// -v=N verbosity levels: 0 errors, 1 warnings (the default), 2 build
// summaries, 3 staleness decisions and commands, 4 per-file fingerprints.
package log

import "log/slog"

// LevelTrace sits below debug and carries per-file fingerprints.
const LevelTrace = slog.Level(-8)

const (
	VerbosityError = 0
	VerbosityWarn  = 1
	VerbosityInfo  = 2
	VerbosityDebug = 3
	VerbosityTrace = 4
)

// VerbosityToLevel maps -v=N to a slog level. Out of range values clamp.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= VerbosityError:
		return slog.LevelError
	case v == VerbosityWarn:
		return slog.LevelWarn
	case v == VerbosityInfo:
		return slog.LevelInfo
	case v == VerbosityDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName is slog's level name, with TRACE for LevelTrace.
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.String()
}
