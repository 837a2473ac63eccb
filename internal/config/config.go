package config

import (
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

type Config struct {
	Home          string `yaml:"home"`
	HeapDir       string `yaml:"heap_dir"`
	LogDir        string `yaml:"log_dir"`
	SegmentSize   uint64 `yaml:"segment_size"`
	HeapCacheSize int64  `yaml:"heap_cache_size"`
	LogLevel      string `yaml:"log_level"`
}

// Segments are the unit of log space reclamation; the default matches an
// 8MiB log segment. The heap cache bounds the ristretto read cache cost.
const (
	DefaultSegmentSize   = 8 * 1024 * 1024
	DefaultHeapCacheSize = 64 * 1024 * 1024
)

func LoadConfig(homeOverride, configOverride string) (*Config, error) {
	home := homeOverride
	if home == "" {
		home = os.Getenv("PAGELOC_HOME")
	}

	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(userHome, ".local", "share", "pageloc")
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, err
	}

	cfg := &Config{
		Home:          home,
		HeapDir:       filepath.Join(home, "heap"),
		LogDir:        filepath.Join(home, "log"),
		SegmentSize:   DefaultSegmentSize,
		HeapCacheSize: DefaultHeapCacheSize,
		LogLevel:      "info",
	}

	cfgPath := configOverride
	if cfgPath == "" {
		cfgPath = filepath.Join(home, "config.yaml")
	}

	if f, err := os.Open(cfgPath); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, err
		}
	}

	_ = os.MkdirAll(cfg.HeapDir, 0o755)
	_ = os.MkdirAll(cfg.LogDir, 0o755)

	return cfg, nil
}
