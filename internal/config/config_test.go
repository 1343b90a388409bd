package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"warden/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.Update.Channel != "stable" {
		t.Fatalf("expected default channel, got %q", cfg.Update.Channel)
	}
	if cfg.UpdatePeriod() != 60*time.Second {
		t.Fatalf("expected default period, got %s", cfg.UpdatePeriod())
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "console" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		`data_dir = "` + dir + `/data"`,
		`log_dir = "` + dir + `/logs"`,
		`level = "DEBUG"`,
		"[update]",
		`url = "https://depot.internal/"`,
		`channel = " unstable "`,
		`package = "core/wardend"`,
		"period_seconds = 120",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s, got %s exists=%v", path, resolved, exists)
	}
	if cfg.Update.URL != "https://depot.internal" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Update.URL)
	}
	if cfg.Update.Channel != "unstable" {
		t.Fatalf("expected channel trimmed, got %q", cfg.Update.Channel)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lowercased level, got %q", cfg.LogLevel)
	}
	if cfg.UpdatePeriod() != 2*time.Minute {
		t.Fatalf("unexpected period %s", cfg.UpdatePeriod())
	}
}

func TestLoadRejectsInvalidPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[update]\nperiod_seconds = 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for zero period")
	}
}

func TestLoadRejectsBadPackageIdent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[update]\npackage = \"wardend\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for malformed package ident")
	}
}

func TestHelperValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[helper]\nsocket = \"/run/helper.sock\"\ncommand_timeout_seconds = 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for zero helper timeout")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when config already exists")
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Update.Package != "core/wardend" {
		t.Fatalf("unexpected sample package %q", cfg.Update.Package)
	}
}
