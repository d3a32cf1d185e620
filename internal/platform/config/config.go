// Package config loads deployment configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SchoolAPI SchoolAPIConfig `yaml:"school_api"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects the persistence backend: "memory" or "postgres".
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	// URL is a pgx connection string; DATABASE_URL overrides it when set.
	URL string `yaml:"url"`
}

// RedisConfig enables the dashboard summary cache when Addr is non-empty.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SchoolAPIConfig points at the campus network-location service. When
// BaseURL is empty, location checks run with an always-unknown verifier.
type SchoolAPIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration the binary boots with when no config
// file exists: memory storage, port 8787, info logging.
func Default() Config {
	return Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8787},
		Storage: StorageConfig{Backend: "memory"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file, layered over Default. A missing
// file is not an error; the defaults are returned so local runs need no
// config at all.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg = applyEnv(cfg)
	if cfg.Storage.Backend != "memory" && cfg.Storage.Backend != "postgres" {
		return Config{}, fmt.Errorf("storage.backend must be memory or postgres, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "postgres" && cfg.Database.URL == "" {
		return Config{}, errors.New("storage.backend is postgres but no database url is configured")
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SCHOOL_API_TOKEN"); v != "" {
		cfg.SchoolAPI.Token = v
	}
	return cfg
}

// Addr returns the host:port the HTTP server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
