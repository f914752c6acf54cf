// Package config defines the planning server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"vault-planning/internal/database"
)

// Config is the top-level configuration.
type Config struct {
	VaultRoot string         `json:"vault_root" yaml:"vault_root"`
	Server    ServerConfig   `json:"server" yaml:"server"`
	Database  DatabaseConfig `json:"database" yaml:"database"`
	Auth      AuthConfig     `json:"auth" yaml:"auth"`
	LogLevel  string         `json:"log_level" yaml:"log_level"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"` // listen address, e.g. "127.0.0.1:8008"
}

// DatabaseConfig controls the vault database connection.
type DatabaseConfig struct {
	BusyTimeoutMS int    `json:"busy_timeout_ms" yaml:"busy_timeout_ms"`
	LogLevel      string `json:"log_level" yaml:"log_level"` // silent, error, warn, info
}

// AuthConfig controls API session tokens.
type AuthConfig struct {
	JWTSecret  string        `json:"jwt_secret" yaml:"jwt_secret"`
	Issuer     string        `json:"issuer" yaml:"issuer"`
	Audience   string        `json:"audience" yaml:"audience"`
	APIKeyHash string        `json:"api_key_hash" yaml:"api_key_hash"` // bcrypt hash
	TokenTTL   time.Duration `json:"token_ttl" yaml:"token_ttl"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		VaultRoot: ".",
		Server: ServerConfig{
			Addr: "127.0.0.1:8008",
		},
		Database: DatabaseConfig{
			BusyTimeoutMS: int(database.DefaultBusyTimeout / time.Millisecond),
			LogLevel:      "warn",
		},
		Auth: AuthConfig{
			JWTSecret: "development-insecure-secret-change-me",
			Issuer:    "vault-planning",
			Audience:  "vault-planning-clients",
			TokenTTL:  24 * time.Hour,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (c *Config) applyEnv() error {
	c.VaultRoot = getEnv("PLANNING_VAULT", c.VaultRoot)
	c.Server.Addr = getEnv("PLANNING_ADDR", c.Server.Addr)
	c.Auth.JWTSecret = getEnv("PLANNING_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.APIKeyHash = getEnv("PLANNING_API_KEY_HASH", c.Auth.APIKeyHash)
	c.LogLevel = getEnv("PLANNING_LOG_LEVEL", c.LogLevel)
	if v := os.Getenv("PLANNING_BUSY_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PLANNING_BUSY_TIMEOUT_MS: %w", err)
		}
		c.Database.BusyTimeoutMS = ms
	}
	return nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.VaultRoot == "" {
		return errors.New("vault_root is required")
	}
	if c.Database.BusyTimeoutMS < 0 {
		return errors.New("database.busy_timeout_ms must not be negative")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	return nil
}

// DatabaseOptions converts the database section for database.Open.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		BusyTimeout: time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond,
		LogLevel:    c.Database.LogLevel,
	}
}
