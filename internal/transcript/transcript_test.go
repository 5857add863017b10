package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/offerarena/offerarena/internal/config"
)

func TestLoggerWritesPerUserNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(config.TranscriptConfig{
		Enabled:   true,
		Dir:       dir,
		QueueSize: 16,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Record("user-1", "alice", "I want a hybrid schedule")
	logger.Record("user-1", "Company Acme", "Three days remote, guaranteed")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "user-1.ndjson"))
	if err != nil {
		t.Fatalf("Reading transcript failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if first.Speaker != "alice" || first.Text != "I want a hybrid schedule" {
		t.Errorf("Unexpected first event: %+v", first)
	}
}

func TestLoggerSanitizesUserIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(config.TranscriptConfig{Enabled: true, Dir: dir, QueueSize: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Record("../../etc/passwd", "alice", "hi")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 file, got %d", len(entries))
	}
	if strings.Contains(entries[0].Name(), "/") || strings.Contains(entries[0].Name(), "..") {
		t.Errorf("Unsafe filename: %q", entries[0].Name())
	}
}

func TestDisabledLoggerIsNoOp(t *testing.T) {
	t.Parallel()

	logger, err := New(config.TranscriptConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Record("user-1", "alice", "ignored")
	if err := logger.Close(); err != nil {
		t.Errorf("Close on disabled logger failed: %v", err)
	}
	if logger.Dropped() != 0 {
		t.Errorf("Expected no drops, got %d", logger.Dropped())
	}
}
