package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the config file (~/.config/lmexplorer/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Engine
	Tokenizer   string   `yaml:"tokenizer"`
	CacheSize   *int64   `yaml:"cache_size"`
	Hidden      *int64   `yaml:"hidden"`
	WeightsSeed *int64   `yaml:"weights_seed"`
	Decay       *float64 `yaml:"decay"`
	MaxContext  *int64   `yaml:"max_context"`
	Parallelism *int64   `yaml:"parallelism"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lmexplorer", "config.yaml")
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing default file yields a zero Config; a missing
// explicit file is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig applies config file defaults to the logging flags when
// the corresponding flag was not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyEngineConfig applies config file defaults to the engine flags.
func applyEngineConfig(c *cli.Command, cfg Config) {
	if cfg.Tokenizer != "" && !c.IsSet("tokenizer") {
		tokenizerKind = cfg.Tokenizer
	}
	if cfg.CacheSize != nil && !c.IsSet("cache-size") {
		cacheSize = *cfg.CacheSize
	}
	if cfg.Hidden != nil && !c.IsSet("hidden") {
		hidden = *cfg.Hidden
	}
	if cfg.WeightsSeed != nil && !c.IsSet("weights-seed") {
		weightsSeed = *cfg.WeightsSeed
	}
	if cfg.Decay != nil && !c.IsSet("decay") {
		decay = *cfg.Decay
	}
	if cfg.MaxContext != nil && !c.IsSet("max-context") {
		maxContext = *cfg.MaxContext
	}
	if cfg.Parallelism != nil && !c.IsSet("parallelism") {
		parallelism = *cfg.Parallelism
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
