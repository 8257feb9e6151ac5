package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, LevelDebug)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Info("engine started", "pending", 3)
	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "engine started" {
		t.Errorf("msg = %v, want %q", entry["msg"], "engine started")
	}
	if entry["pending"] != float64(3) {
		t.Errorf("pending = %v, want 3", entry["pending"])
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, LevelWarn)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log.Debug("dropped")
	log.Info("dropped too")
	log.Warn("kept")
	_ = log.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "engine.log"))
	content := string(data)
	if strings.Contains(content, "dropped") {
		t.Errorf("log contains filtered entries: %s", content)
	}
	if !strings.Contains(content, "kept") {
		t.Errorf("log missing WARN entry: %s", content)
	}
}

func TestChildLoggerAttrs(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, LevelInfo)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	child := log.WithEngine("main").WithTask("t-1").WithComponent("dispatcher")
	child.Info("task dispatched")
	_ = log.Close()

	data, _ := os.ReadFile(filepath.Join(dir, "engine.log"))
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("parsing entry: %v", err)
	}
	if entry["engine"] != "main" || entry["task_id"] != "t-1" || entry["component"] != "dispatcher" {
		t.Errorf("child attrs missing: %v", entry)
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	log := Nop()
	child := log.With("key", "value")

	if len(log.attrs) != 0 {
		t.Errorf("parent attrs modified: %v", log.attrs)
	}
	if len(child.attrs) != 1 {
		t.Errorf("child attrs = %v, want one entry", child.attrs)
	}
}

func TestNopLoggerIsUsable(t *testing.T) {
	log := Nop()
	log.Debug("nothing")
	log.Info("nothing")
	log.Warn("nothing")
	log.Error("nothing")
	if err := log.Close(); err != nil {
		t.Errorf("Close() on nop logger error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
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
