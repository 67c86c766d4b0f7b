// Package config loads and saves the daemon configuration.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SpotifyConfig holds the Web API credentials for the spotify player.
// Credentials may also arrive via SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET,
// which win over the file.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	DeviceID     string `yaml:"device_id" json:"device_id"`
}

// ToneConfig controls the built-in tone player.
type ToneConfig struct {
	// Device is a writable path receiving raw PCM (an audio device or a
	// FIFO consumed by a player process). Empty discards the audio.
	Device string `yaml:"device" json:"device"`
	// SampleRate in Hz; 0 means 44100.
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
}

// Config is the top-level daemon configuration.
type Config struct {
	// Listen is the HTTP listen address for the control API.
	Listen string `yaml:"listen" json:"listen"`

	// StoreDriver selects the alarm store: "json" or "sqlite".
	StoreDriver string `yaml:"store_driver" json:"store_driver"`

	// StorePath is the JSON file or SQLite database path.
	StorePath string `yaml:"store_path" json:"store_path"`

	// HeartbeatCron is a cron expression for the periodic log of upcoming
	// occurrences (robfig/cron syntax, @every accepted).
	HeartbeatCron string `yaml:"heartbeat" json:"heartbeat"`

	// OpenCommand overrides the platform opener used by the app player.
	OpenCommand string `yaml:"open_command" json:"open_command"`

	Spotify SpotifyConfig `yaml:"spotify" json:"spotify"`
	Tone    ToneConfig    `yaml:"tone" json:"tone"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8383",
		StoreDriver:   "json",
		StorePath:     defaultStorePath(),
		HeartbeatCron: "*/5 * * * *",
		Tone:          ToneConfig{SampleRate: 44100},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "alarms.json"
	}
	return filepath.Join(home, ".reveille", "alarms.json")
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8383"
	}
	switch c.StoreDriver {
	case "json", "sqlite":
	default:
		c.StoreDriver = "json"
	}
	if c.StorePath == "" {
		c.StorePath = defaultStorePath()
	}
	if c.HeartbeatCron == "" {
		c.HeartbeatCron = "*/5 * * * *"
	}
	if c.Tone.SampleRate <= 0 {
		c.Tone.SampleRate = 44100
	}
}

// Load loads configuration from the given YAML path. A missing file is a
// first run: a default config is written with 0600 perms and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".reveille-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
