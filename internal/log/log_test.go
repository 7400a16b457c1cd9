package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  slog.Level
	}{
		{-1, slog.LevelError},
		{0, slog.LevelError},
		{1, slog.LevelWarn},
		{2, slog.LevelInfo},
		{3, slog.LevelDebug},
		{4, LevelTrace},
		{9, LevelTrace},
	}

	for _, tt := range tests {
		if got := VerbosityToLevel(tt.verbosity); got != tt.expected {
			t.Errorf("VerbosityToLevel(%d) = %v, want %v", tt.verbosity, got, tt.expected)
		}
	}
}

func TestLevelName(t *testing.T) {
	tests := []struct {
		level    slog.Level
		expected string
	}{
		{LevelTrace, "TRACE"},
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelWarn, "WARN"},
	}

	for _, tt := range tests {
		if got := LevelName(tt.level); got != tt.expected {
			t.Errorf("LevelName(%v) = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"", FormatText, false},
		{"yaml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// capture points the global logger at a buffer for the duration of a test.
func capture(t *testing.T, v int, format Format) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	InitWithOutput(v, format, &buf)
	t.Cleanup(func() { Init(VerbosityWarn, FormatText) })
	return &buf
}

func TestInitVerbosity(t *testing.T) {
	buf := capture(t, VerbosityWarn, FormatText)

	Component("build").Info("hidden")
	Component("build").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at -v=1, got: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn should pass at -v=1, got: %s", out)
	}
	if Verbosity() != VerbosityWarn {
		t.Errorf("Verbosity() = %d, want %d", Verbosity(), VerbosityWarn)
	}
}

func TestSetVerbosityAppliesToExistingLoggers(t *testing.T) {
	buf := capture(t, VerbosityError, FormatText)
	l := Component("incremental")

	l.Debug("before")
	SetVerbosity(VerbosityDebug)
	l.Debug("after")

	out := buf.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("SetVerbosity should change the shared level, got: %s", out)
	}
}

func TestTextFormatOmitsTime(t *testing.T) {
	buf := capture(t, VerbosityInfo, FormatText)

	Component("build").Info("build finished", "compiled", 3)

	out := buf.String()
	if strings.Contains(out, "time=") {
		t.Errorf("text output should not carry timestamps, got: %s", out)
	}
	for _, want := range []string{"level=INFO", "component=build", "compiled=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q: %s", want, out)
		}
	}
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t, VerbosityTrace, FormatJSON)

	Trace(Component("incremental"), "fingerprint", "path", "main.c")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["level"] != "TRACE" {
		t.Errorf("level = %v, want TRACE", rec["level"])
	}
	if rec["component"] != "incremental" || rec["path"] != "main.c" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Error("JSON output should keep timestamps")
	}
}

func TestTraceFilteredBelowTraceVerbosity(t *testing.T) {
	buf := capture(t, VerbosityDebug, FormatText)

	Trace(Logger(), "fingerprint")
	if buf.Len() != 0 {
		t.Errorf("trace should be filtered at -v=3, got: %s", buf.String())
	}
}
