package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("FPS", "0")
	if err := run(); err == nil {
		t.Fatal("run() error = nil, want invalid FPS")
	}
}

func TestRunReturnsBackendErrorAfterOpeningLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "urban3d.log")
	t.Setenv("LOG_FILE", logPath)
	t.Setenv("API_BASE", "")
	t.Setenv("REDIS_URL", "not-a-redis-url")

	err := run()
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("run() error = %v, want redis url error", err)
	}
	if _, statErr := os.Stat(logPath); statErr != nil {
		t.Fatalf("log file not created: %v", statErr)
	}
}
