package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// readLogLines reads the log file and parses each line as JSON.
func readLogLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workforce.log")

	logger, err := NewLogger(path, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("scheduler pass", "admitted", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readLogLines(t, path)
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0]["msg"] != "scheduler pass" {
		t.Errorf("msg = %v, want %q", entries[0]["msg"], "scheduler pass")
	}
	if entries[0]["admitted"] != float64(2) {
		t.Errorf("admitted = %v, want 2", entries[0]["admitted"])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workforce.log")

	logger, err := NewLogger(path, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readLogLines(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries at WARN level, got %d", len(entries))
	}
	if entries[0]["msg"] != "warn message" {
		t.Errorf("first entry = %v, want warn message", entries[0]["msg"])
	}
	if entries[1]["msg"] != "error message" {
		t.Errorf("second entry = %v, want error message", entries[1]["msg"])
	}
}

func TestChildLoggerAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workforce.log")

	logger, err := NewLogger(path, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	child := logger.WithTask("t-1").WithSession("s-1").With("attempt", 3)
	child.Info("admitted")

	// The parent logger must be unaffected by child attributes.
	logger.Info("bare entry")

	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries := readLogLines(t, path)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}

	if entries[0]["task_id"] != "t-1" {
		t.Errorf("task_id = %v, want t-1", entries[0]["task_id"])
	}
	if entries[0]["session_id"] != "s-1" {
		t.Errorf("session_id = %v, want s-1", entries[0]["session_id"])
	}
	if entries[0]["attempt"] != float64(3) {
		t.Errorf("attempt = %v, want 3", entries[0]["attempt"])
	}

	if _, ok := entries[1]["task_id"]; ok {
		t.Error("parent logger should not carry child task_id attribute")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	logger := NopLogger()
	logger.Debug("a")
	logger.Info("b", "k", "v")
	logger.Warn("c")
	logger.Error("d")
	logger.WithTask("t-1").Info("e")
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nop logger: %v", err)
	}
}
