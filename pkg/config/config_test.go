package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  proxy_url: http://localhost:3000/api/backend\ntts:\n  elevenlabs:\n    key: test-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Feed.Interval != Duration(30*time.Second) {
		t.Errorf("expected default feed interval 30s, got %v", time.Duration(cfg.Feed.Interval))
	}
	if cfg.Fusion.MovementThresholdM != 3 {
		t.Errorf("expected movement threshold 3m, got %v", cfg.Fusion.MovementThresholdM)
	}
	if cfg.TTS.ElevenLabs.Model != "eleven_multilingual_v2" {
		t.Errorf("unexpected default model: %s", cfg.TTS.ElevenLabs.Model)
	}
}

func TestLoad_MissingNarrationKeyFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  proxy_url: http://localhost:3000/api/backend\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ELEVENLABS_API_KEY", "")
	if _, err := Load(path); err == nil {
		t.Fatal("expected hard failure without elevenlabs key")
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BACKEND_URL", "http://example.test/api/backend")
	t.Setenv("ELEVENLABS_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTS.ElevenLabs.Key != "env-key" {
		t.Errorf("env fallback not applied: %q", cfg.TTS.ElevenLabs.Key)
	}
	if cfg.Backend.ProxyURL != "http://example.test/api/backend" {
		t.Errorf("backend url fallback not applied: %q", cfg.Backend.ProxyURL)
	}
}

func TestLoad_MissingMapsKeyDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")
	body := "backend:\n  proxy_url: http://localhost:3000/api/backend\ntts:\n  elevenlabs:\n    key: k\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MAPS_API_KEY", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("maps key absence must not fail startup: %v", err)
	}
	if cfg.Maps.Key != "" {
		t.Errorf("expected empty maps key, got %q", cfg.Maps.Key)
	}
}
