package slogutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestScoutHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("repository cloned", "repo", "acme/widgets", "sizeMB", 12)

	out := buf.String()
	if !strings.Contains(out, "[info] repository cloned") {
		t.Errorf("Expected level and message in output, got %q", out)
	}
	if !strings.Contains(out, "repo=acme/widgets") {
		t.Errorf("Expected attribute in output, got %q", out)
	}
	if !strings.Contains(out, "sizeMB=12") {
		t.Errorf("Expected numeric attribute in output, got %q", out)
	}
}

func TestScoutHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("should be suppressed")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be suppressed") {
		t.Error("Info message should have been filtered at warn level")
	}
	if !strings.Contains(out, "should appear") {
		t.Error("Warn message should have been written")
	}
}

func TestScoutHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).With("queryId", "q-1")

	logger.WithGroup("cache").Debug("hit", "key", "abc")

	out := buf.String()
	if !strings.Contains(out, "queryId=q-1") {
		t.Errorf("Expected pre-set attr, got %q", out)
	}
	if !strings.Contains(out, "cache.key=abc") {
		t.Errorf("Expected group-prefixed attr, got %q", out)
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	if LevelFromVerbosity(0, true) <= slog.LevelError {
		t.Error("quiet should suppress all standard levels")
	}
	if LevelFromVerbosity(0, false) != slog.LevelWarn {
		t.Error("verbosity 0 should be warn")
	}
	if LevelFromVerbosity(2, false) != slog.LevelDebug {
		t.Error("verbosity 2 should be debug")
	}
}
