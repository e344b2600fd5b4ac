package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `tokenizer: bytes
cache_size: 16
decay: 0.25
log_level: debug
server_address: 0.0.0.0:9000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tokenizer != "bytes" {
		t.Fatalf("tokenizer = %q", cfg.Tokenizer)
	}
	if cfg.CacheSize == nil || *cfg.CacheSize != 16 {
		t.Fatalf("cache_size = %v", cfg.CacheSize)
	}
	if cfg.Decay == nil || *cfg.Decay != 0.25 {
		t.Fatalf("decay = %v", cfg.Decay)
	}
	if cfg.Hidden != nil {
		t.Fatalf("hidden should be unset, got %d", *cfg.Hidden)
	}
	if cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing explicit config")
	}
}

func TestLoadConfigMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Tokenizer != "" || cfg.CacheSize != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache_size: [1, 2"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
