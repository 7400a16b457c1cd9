package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the log encoding.
type Format string

const (
	// FormatText is logfmt without timestamps, for people watching a build.
	FormatText Format = "text"
	// FormatJSON is one JSON object per line with timestamps, for tools.
	FormatJSON Format = "json"
)

// ParseFormat validates a --log-format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want text or json)", s)
	}
}

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Level  slog.Leveler
	Format Format
	// Output defaults to stderr; stdout belongs to command output such as
	// status --json and watch events.
	Output io.Writer
}

// NewHandler creates the handler for opts.Format.
func NewHandler(opts HandlerOptions) slog.Handler {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	if opts.Format == FormatJSON {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: renameLevel,
		})
	}
	return slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return renameLevel(groups, a)
		},
	})
}

func renameLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(l))
		}
	}
	return a
}
