package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInit(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logDir := filepath.Join(configDir, "logs")
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("log directory was not created: %s", logDir)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after initialization")
	}
	if got := Logger.GetLevel(); got != log.WarnLevel {
		t.Errorf("expected warn level, got %v", got)
	}

	Warn("test warning message")
	Error("test error message")
}

func TestInitDebugMode(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{Debug: true, Quiet: true, ConfigDir: configDir}); err != nil {
		t.Fatalf("failed to initialize logger in debug mode: %v", err)
	}
	if got := Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}

	Debug("test debug message in debug mode")
	Info("test info message in debug mode")
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// must not panic
	Debug("test debug message")
	Info("test info message")
	Warn("test warning message")
	Error("test error message")
}

func TestKeyvalsAreWritten(t *testing.T) {
	var buf bytes.Buffer
	Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	t.Cleanup(func() { Logger = nil })

	Error("persist failed", "op", "upsert todo")

	out := buf.String()
	if !strings.Contains(out, "persist failed") || !strings.Contains(out, "upsert todo") {
		t.Errorf("unexpected log output: %q", out)
	}
}
