package app

import (
	"log/slog"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	want := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, lvl := range want {
		if got := parseLogLevel(in); got != lvl {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, lvl)
		}
	}

	// Anything unrecognized, including empty, lands on info.
	for _, in := range []string{"", "verbose", "trace"} {
		if got := parseLogLevel(in); got != slog.LevelInfo {
			t.Errorf("parseLogLevel(%q) = %v, want info", in, got)
		}
	}
}

func TestNewLoggerFormatSelection(t *testing.T) {
	if _, ok := NewLogger("info", "pretty").Handler().(*prettyHandler); !ok {
		t.Fatal("format=pretty must select the pretty handler")
	}
	if _, ok := NewLogger("info", "json").Handler().(*slog.JSONHandler); !ok {
		t.Fatal("format=json must select the JSON handler")
	}
	if _, ok := NewLogger("info", "").Handler().(*slog.JSONHandler); !ok {
		t.Fatal("unset format must default to JSON")
	}
}
