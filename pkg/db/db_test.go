package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"cicerone/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	d.Close()
}

func TestPruneAudio(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	oldStamp := time.Now().Add(-40 * 24 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec("INSERT INTO narration_audio (key, audio, created_at) VALUES (?, ?, ?)", "old", []byte("x"), oldStamp); err != nil {
		t.Fatal(err)
	}
	newStamp := time.Now().Add(-1 * time.Hour).UTC().Format("2006-01-02 15:04:05")
	if _, err := d.Exec("INSERT INTO narration_audio (key, audio, created_at) VALUES (?, ?, ?)", "new", []byte("y"), newStamp); err != nil {
		t.Fatal(err)
	}

	if err := d.PruneAudio(30 * 24 * time.Hour); err != nil {
		t.Fatalf("PruneAudio failed: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT count(*) FROM narration_audio").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 surviving row, got %d", count)
	}
}
