package telemetry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Enabled {
		t.Error("telemetry should default to disabled")
	}
	if cfg.AnonymousID == "" {
		t.Error("AnonymousID should be generated on first load")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.Enabled = true
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}

	if !loaded.Enabled {
		t.Error("Enabled not persisted")
	}
	if loaded.AnonymousID != cfg.AnonymousID {
		t.Errorf("AnonymousID changed across save/load: %q != %q", loaded.AnonymousID, cfg.AnonymousID)
	}
}

func TestConfig_Save_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".stride")

	cfg := &Config{Enabled: true, AnonymousID: "fixed-id"}
	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestLoadConfig_BackfillsAnonymousID(t *testing.T) {
	dir := t.TempDir()

	// A hand-edited file without an id gets one assigned.
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"enabled": true}`), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Enabled {
		t.Error("Enabled should be read from file")
	}
	if cfg.AnonymousID == "" {
		t.Error("AnonymousID should be backfilled")
	}
}

func TestLoadConfig_CorruptFile(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() should error on corrupt file")
	}
}

func TestConfig_IsEnabled_NilReceiver(t *testing.T) {
	var cfg *Config
	if cfg.IsEnabled() {
		t.Error("nil config should report disabled")
	}
}
