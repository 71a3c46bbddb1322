package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ListenAddr == "" {
		t.Error("expected a default listen_addr")
	}
	if cfg.Mode() != ModeHostname {
		t.Errorf("Mode() = %v, want ModeHostname", cfg.Mode())
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yml")); err != nil {
		t.Errorf("expected config.yml to be written: %v", err)
	}
}

func TestModePortSpan(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("port_range:\n  start: 25565\n  end: 25575\nbackend_server: \"10.0.0.5\"\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode() != ModePortSpan {
		t.Errorf("Mode() = %v, want ModePortSpan", cfg.Mode())
	}
	if cfg.PortRange.Start != 25565 || cfg.PortRange.End != 25575 {
		t.Errorf("PortRange = %+v", cfg.PortRange)
	}
}

func TestValidateRejectsInvertedPortRange(t *testing.T) {
	cfg := &Config{
		PortRange:     PortRange{Start: 100, End: 50},
		BackendServer: "10.0.0.1",
	}
	if err := validate(cfg); err == nil {
		t.Fatal("expected error for inverted port range")
	}
}
