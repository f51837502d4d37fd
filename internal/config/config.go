// Package config loads cpindexer's configuration: viper-backed YAML on
// disk, dual yaml/mapstructure tags, a package-level Load/Save/DefaultConfig
// trio.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cpindexer/cpindexer/internal/engine"
)

// Config is the on-disk configuration surface: the engine's tunables (spec
// §6) plus the operational settings the engine itself doesn't know about
// (where its watermark file lives, which locale to resolve labels in).
type Config struct {
	IndexerEnabled       bool  `yaml:"indexer_enabled" mapstructure:"indexer_enabled"`
	InstantIndexingLimit int   `yaml:"instant_indexing_limit" mapstructure:"instant_indexing_limit"`
	FullUpdateIntervalMs int64 `yaml:"full_update_interval_ms" mapstructure:"full_update_interval_ms"`
	FullUpdateLimit      int   `yaml:"full_update_limit" mapstructure:"full_update_limit"`
	DeltaUpdateLimit     int   `yaml:"delta_update_limit" mapstructure:"delta_update_limit"`
	UpsertBatch          int   `yaml:"upsert_batch" mapstructure:"upsert_batch"`
	DeleteBatch          int   `yaml:"delete_batch" mapstructure:"delete_batch"`
	QueryBatch           int   `yaml:"query_batch" mapstructure:"query_batch"`

	SettingsPath string `yaml:"settings_path" mapstructure:"settings_path"`
	Locale       string `yaml:"locale" mapstructure:"locale"`
}

// EngineConfig projects the engine-relevant fields into an engine.Config.
func (c Config) EngineConfig() engine.Config {
	return engine.Config{
		IndexerEnabled:       c.IndexerEnabled,
		InstantIndexingLimit: c.InstantIndexingLimit,
		FullUpdateIntervalMs: c.FullUpdateIntervalMs,
		FullUpdateLimit:      c.FullUpdateLimit,
		DeltaUpdateLimit:     c.DeltaUpdateLimit,
		UpsertBatch:          c.UpsertBatch,
		DeleteBatch:          c.DeleteBatch,
		QueryBatch:           c.QueryBatch,
	}
}

var cfg *Config

// GetConfigPath returns the directory cpindexer looks for its config file
// in.
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cpindexer")
}

func GetConfigFile() string {
	return filepath.Join(GetConfigPath(), "config.yaml")
}

func ConfigExists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// Load reads the config file via viper, applying defaults for any field the
// file doesn't set. A missing config file is not an error — it returns
// DefaultConfig.
func Load() (*Config, error) {
	cfg = nil

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(GetConfigPath())
	viper.AddConfigPath(".")

	def := DefaultConfig()
	viper.SetDefault("indexer_enabled", def.IndexerEnabled)
	viper.SetDefault("instant_indexing_limit", def.InstantIndexingLimit)
	viper.SetDefault("full_update_interval_ms", def.FullUpdateIntervalMs)
	viper.SetDefault("full_update_limit", def.FullUpdateLimit)
	viper.SetDefault("delta_update_limit", def.DeltaUpdateLimit)
	viper.SetDefault("upsert_batch", def.UpsertBatch)
	viper.SetDefault("delete_batch", def.DeleteBatch)
	viper.SetDefault("query_batch", def.QueryBatch)
	viper.SetDefault("settings_path", def.SettingsPath)
	viper.SetDefault("locale", def.Locale)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			cfg = def
			return cfg, nil
		}
		return nil, err
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch installs a viper hot-reload hook: on any change to the config file,
// onChange is called with the freshly reparsed Config. The engine consults
// the resulting engine.Config only at its next run boundary (see
// engine.Engine.SetConfig), never mid-run.
func Watch(onChange func(Config)) {
	viper.OnConfigChange(func(_ fsnotify.Event) {
		var c Config
		if err := viper.Unmarshal(&c); err != nil {
			return
		}
		cfg = &c
		onChange(c)
	})
	viper.WatchConfig()
}

func Save(c *Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(GetConfigFile(), data, 0o600)
}

func DefaultConfig() *Config {
	eng := engine.DefaultConfig()
	return &Config{
		IndexerEnabled:       eng.IndexerEnabled,
		InstantIndexingLimit: eng.InstantIndexingLimit,
		FullUpdateIntervalMs: eng.FullUpdateIntervalMs,
		FullUpdateLimit:      eng.FullUpdateLimit,
		DeltaUpdateLimit:     eng.DeltaUpdateLimit,
		UpsertBatch:          eng.UpsertBatch,
		DeleteBatch:          eng.DeleteBatch,
		QueryBatch:           eng.QueryBatch,
		SettingsPath:         filepath.Join(GetConfigPath(), "settings"),
		Locale:               "en-US",
	}
}
