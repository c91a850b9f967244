// Package config loads the application configuration from YAML with
// environment-variable fallbacks for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Backend   BackendConfig   `yaml:"backend"`
	TTS       TTSConfig       `yaml:"tts"`
	Narration NarrationConfig `yaml:"narration"`
	Feed      FeedConfig      `yaml:"feed"`
	Fusion    FusionConfig    `yaml:"fusion"`
	Cache     CacheConfig     `yaml:"cache"`
	Maps      MapsConfig      `yaml:"maps"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// BackendConfig holds settings for the generic backend proxy.
type BackendConfig struct {
	ProxyURL  string   `yaml:"proxy_url"`
	Retries   int      `yaml:"retries"`
	BaseDelay Duration `yaml:"base_delay"`
	Timeout   Duration `yaml:"timeout"`
}

// ElevenLabsConfig holds ElevenLabs TTS settings.
type ElevenLabsConfig struct {
	Key   string `yaml:"key"`
	Voice string `yaml:"voice"`
	Model string `yaml:"model"`
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Provider   string           `yaml:"provider"` // "elevenlabs", "mock"
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
}

// NarrationConfig holds playback queue settings.
type NarrationConfig struct {
	ItemTimeout Duration `yaml:"item_timeout"`
}

// FeedConfig holds pin feed polling settings.
type FeedConfig struct {
	Provider   string   `yaml:"provider"` // "backend", "mock"
	Interval   Duration `yaml:"interval"`
	MinSpacing Duration `yaml:"min_spacing"`
	Prompt     string   `yaml:"prompt"`
}

// FusionConfig holds heading fusion thresholds.
type FusionConfig struct {
	MovementThresholdM float64 `yaml:"movement_threshold_m"`
	MinSpeed           float64 `yaml:"min_speed"`
}

// CacheConfig holds the narration audio cache settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MapsConfig holds the map widget API key. Absence degrades the map
// feature; it is not a startup failure.
type MapsConfig struct {
	Key string `yaml:"key"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: "127.0.0.1:8421"},
		Log:    LogConfig{Path: "logs/cicerone.log", Level: "INFO"},
		Backend: BackendConfig{
			Retries:   3,
			BaseDelay: Duration(500 * time.Millisecond),
			Timeout:   Duration(30 * time.Second),
		},
		TTS: TTSConfig{
			Provider: "elevenlabs",
			ElevenLabs: ElevenLabsConfig{
				Voice: "pVnrL6sighQX7hVz89cp",
				Model: "eleven_multilingual_v2",
			},
		},
		Narration: NarrationConfig{ItemTimeout: Duration(60 * time.Second)},
		Feed: FeedConfig{
			Provider:   "backend",
			Interval:   Duration(30 * time.Second),
			MinSpacing: Duration(5 * time.Second),
			Prompt:     "sightseeing Brown University buildings",
		},
		Fusion: FusionConfig{
			MovementThresholdM: 3,
			MinSpeed:           1,
		},
		Cache: CacheConfig{Enabled: true, Path: "data/narration.db"},
	}
}

// Load reads the config file at path, merging it over the defaults and
// filling secrets from the environment when the file leaves them empty.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Env fallbacks (never written back to disk)
	if cfg.Backend.ProxyURL == "" {
		cfg.Backend.ProxyURL = os.Getenv("BACKEND_URL")
	}
	if cfg.TTS.ElevenLabs.Key == "" {
		cfg.TTS.ElevenLabs.Key = os.Getenv("ELEVENLABS_API_KEY")
	}
	if cfg.Maps.Key == "" {
		cfg.Maps.Key = os.Getenv("MAPS_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks hard requirements. A missing narration key is fatal;
// a missing maps key only degrades the map feature, so it passes.
func (c *Config) Validate() error {
	if c.Backend.ProxyURL == "" {
		return fmt.Errorf("backend proxy_url is required (set backend.proxy_url or BACKEND_URL)")
	}
	if c.TTS.Provider == "elevenlabs" && c.TTS.ElevenLabs.Key == "" {
		return fmt.Errorf("elevenlabs key is required (set tts.elevenlabs.key or ELEVENLABS_API_KEY)")
	}
	return nil
}

// GenerateDefault writes the default configuration to path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
