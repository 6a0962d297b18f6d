package cmd

import (
	"os"

	"gopkg.in/yaml.v3"
)

// configFileName is looked up in the working directory.
const configFileName = ".codeprism.yaml"

// Config carries project-level defaults for the CLI. All fields are
// optional; flags override the file.
type Config struct {
	// Snapshot is the default snapshot path for build and query.
	Snapshot string `yaml:"snapshot"`

	// Workers is the default query worker limit.
	Workers int `yaml:"workers"`

	// MetricsAddr exposes Prometheus metrics during build when set.
	MetricsAddr string `yaml:"metrics_addr"`

	// TreeCacheSize bounds the parse tree cache.
	TreeCacheSize int `yaml:"tree_cache_size"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		Snapshot:      "codeprism.cpg",
		Workers:       4,
		TreeCacheSize: 256,
	}
}

// loadConfig reads the project config file if present, falling back to the
// defaults for anything unset.
func loadConfig() Config {
	cfg := defaultConfig()
	data, err := os.ReadFile(configFileName)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultConfig()
	}
	if cfg.Snapshot == "" {
		cfg.Snapshot = defaultConfig().Snapshot
	}
	if cfg.Workers < 1 {
		cfg.Workers = defaultConfig().Workers
	}
	if cfg.TreeCacheSize < 1 {
		cfg.TreeCacheSize = defaultConfig().TreeCacheSize
	}
	return cfg
}
