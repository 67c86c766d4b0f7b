package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFirstRunCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8383" || cfg.StoreDriver != "json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 perms, got %o", perm)
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "listen: \"0.0.0.0:9000\"\nstore_driver: \"bogus\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != "0.0.0.0:9000" {
		t.Fatalf("explicit listen lost: %s", cfg.Listen)
	}
	if cfg.StoreDriver != "json" {
		t.Fatalf("unknown store driver should fall back to json, got %s", cfg.StoreDriver)
	}
	if cfg.HeartbeatCron == "" || cfg.Tone.SampleRate != 44100 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.StoreDriver = "sqlite"
	cfg.StorePath = "/var/lib/reveille/alarms.db"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.StoreDriver != "sqlite" || got.StorePath != "/var/lib/reveille/alarms.db" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
