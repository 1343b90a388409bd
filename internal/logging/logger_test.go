package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"warden/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "wardend.log")

	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	component := logging.NewComponentLogger(logger, "self-updater")
	component.Info("candidate staged", logging.String(logging.FieldPackage, "core/wardend/1.2.3/20260815120000"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[self-updater]") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "candidate staged") {
		t.Fatalf("expected message in %q", line)
	}
	if !strings.Contains(line, "package=core/wardend/1.2.3/20260815120000") {
		t.Fatalf("expected package attr in %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "wardend.log")

	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "should be dropped") {
		t.Fatalf("info line leaked through warn level: %q", string(data))
	}
	if !strings.Contains(string(data), "should be kept") {
		t.Fatalf("warn line missing: %q", string(data))
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("must not panic", logging.Error(nil))
}
