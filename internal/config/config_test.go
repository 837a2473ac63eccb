package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.pageloc/internal/config"
)

func TestDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := config.LoadConfig(home, "")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Home != home {
		t.Fatalf("Home = %s", cfg.Home)
	}
	if cfg.SegmentSize != config.DefaultSegmentSize {
		t.Fatalf("SegmentSize = %d", cfg.SegmentSize)
	}
	if cfg.HeapDir != filepath.Join(home, "heap") {
		t.Fatalf("HeapDir = %s", cfg.HeapDir)
	}

	if _, err := os.Stat(cfg.HeapDir); err != nil {
		t.Fatalf("heap dir was not created: %v", err)
	}
}

func TestYamlOverride(t *testing.T) {
	home := t.TempDir()

	cfgPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("segment_size: 1024\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(home, cfgPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SegmentSize != 1024 {
		t.Fatalf("SegmentSize = %d, want 1024", cfg.SegmentSize)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %s", cfg.LogLevel)
	}
}
