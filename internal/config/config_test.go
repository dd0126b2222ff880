package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Bind != "127.0.0.1" || cfg.Server.Port != 38200 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Decay.ThresholdDays != 60 || cfg.Decay.DailyRate != 0.01 || cfg.Decay.Floor != 0.3 {
		t.Errorf("decay defaults = %+v", cfg.Decay)
	}
	if cfg.Priority.Current != 2.0 || cfg.Priority.Framework != 1.5 || cfg.Priority.Other != 0.5 {
		t.Errorf("priority defaults = %+v", cfg.Priority)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9999
decay:
  threshold_days: 30
  daily_rate: 0.05
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Decay.ThresholdDays != 30 || cfg.Decay.DailyRate != 0.05 {
		t.Errorf("decay = %+v", cfg.Decay)
	}
	// Untouched keys keep defaults.
	if cfg.Server.Bind != "127.0.0.1" || cfg.Decay.Floor != 0.3 {
		t.Errorf("defaults lost: bind=%s floor=%v", cfg.Server.Bind, cfg.Decay.Floor)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
	if cfg.Server.Port != 38200 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CORTEXKG_PORT", "4242")
	t.Setenv("CORTEXKG_DB", "/tmp/override.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 4242 {
		t.Errorf("port = %d, want env override 4242", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:38200" {
		t.Errorf("ListenAddr = %q", got)
	}
}
