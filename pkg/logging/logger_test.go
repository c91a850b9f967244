package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"cicerone/pkg/config"
)

func TestInit_WritesAndRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")
	cfg := &config.LogConfig{Path: path, Level: "DEBUG"}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Info("first run")
	cleanup()

	// Second init rotates the first file to .old
	cleanup, err = Init(cfg)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	cleanup()

	if _, err := os.Stat(path + ".old"); err != nil {
		t.Errorf("expected rotated log file: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug") != slog.LevelDebug {
		t.Error("debug not parsed")
	}
	if parseLevel("unknown") != slog.LevelInfo {
		t.Error("unknown level should default to info")
	}
}
