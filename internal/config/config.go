// Package config loads storefront client configuration from an optional
// yaml file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url" env:"STOREFRONT_API_URL"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" env:"STOREFRONT_API_TIMEOUT"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"STOREFRONT_API_RPS"`
}

// StorageConfig selects the durable tier: a local JSON file by default, or
// a shared redis instance when RedisAddr is set.
type StorageConfig struct {
	Path          string `yaml:"path" env:"STOREFRONT_STORAGE_PATH"`
	RedisAddr     string `yaml:"redis_addr" env:"STOREFRONT_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"STOREFRONT_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"STOREFRONT_REDIS_DB"`
	RedisPrefix   string `yaml:"redis_prefix" env:"STOREFRONT_REDIS_PREFIX"`
}

// Timeout returns the API timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads config/storefront.yaml relative to the working directory.
func Load() (*Config, error) {
	return LoadFromPath(filepath.Join("config", "storefront.yaml"))
}

// LoadFromPath loads configuration from a specific file, then applies
// environment overrides and validates.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the default config file, falling back to defaults
// (still honoring environment overrides) when the file is absent.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err == nil {
		return cfg
	}
	cfg = Default()
	if err := applyEnv(cfg); err == nil {
		if cfg.validate() == nil {
			return cfg
		}
	}
	return Default()
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			Path: "storefront.json",
		},
	}
}

func applyEnv(cfg *Config) error {
	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return fmt.Errorf("apply env overrides: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds cannot be negative")
	}
	if c.Storage.RedisAddr == "" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when redis is not configured")
	}
	return nil
}
