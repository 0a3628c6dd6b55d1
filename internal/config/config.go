// Package config loads CLI settings from .arbor.yaml, ARBOR_* environment
// variables and flags bound through viper.
package config

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Backends accepted by the "backend" key.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DataDir is where the default store files live.
const DataDir = ".arbor"

// RedisConfig enables the Redis source store and writer lock when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PrototypesConfig locates prototype sources.
type PrototypesConfig struct {
	// Sources is the JSON file persisting summoned sources (ignored with Redis).
	Sources string `mapstructure:"sources"`
	// Dir resolves relative template locators.
	Dir string `mapstructure:"dir"`
}

// Config holds all runtime configuration for the CLI.
type Config struct {
	Backend       string           `mapstructure:"backend"`
	Store         string           `mapstructure:"store"`
	Prototypes    PrototypesConfig `mapstructure:"prototypes"`
	Redis         RedisConfig      `mapstructure:"redis"`
	EncryptionKey string           `mapstructure:"encryption_key"`
	Debug         bool             `mapstructure:"debug"`
}

// InitEnv maps ARBOR_* variables onto keys, with "_" standing for ".".
func InitEnv() {
	viper.SetEnvPrefix("ARBOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("backend", BackendFile)
	viper.SetDefault("store", "")
	viper.SetDefault("prototypes.sources", filepath.Join(DataDir, "prototypes.json"))
	viper.SetDefault("prototypes.dir", ".")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "arbor:")
	viper.SetDefault("encryption_key", "")
	viper.SetDefault("debug", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendFile:
		if cfg.Store == "" {
			cfg.Store = filepath.Join(DataDir, "graph.json")
		}
	case BackendSQLite:
		if cfg.Store == "" {
			cfg.Store = filepath.Join(DataDir, "arbor.db")
		}
	default:
		return Config{}, fmt.Errorf("unknown backend %q (want memory, file or sqlite)", cfg.Backend)
	}

	if _, err := cfg.Key(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Key decodes EncryptionKey. A nil key means encryption is off.
func (c Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}
