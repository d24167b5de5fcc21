package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("debug", &buf)

	logger.WithFields(map[string]interface{}{"topic": "/mybot/cmd_vel", "armed": true}).Infof("tick %d", 3)

	line := buf.String()
	if !strings.Contains(line, "[INF] tick 3 armed=true topic=/mybot/cmd_vel") {
		t.Errorf("unexpected log line: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("expected trailing newline, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("warn", &buf)

	logger.Infof("hidden")
	logger.Warnf("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[WAR] shown") {
		t.Errorf("expected warning entry, got %q", out)
	}
}

func TestNewLogrusLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogrusLogger("not-a-level", dir)
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}

	logger.Infof("written to file")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry: %q", string(data))
	}
}
