// Package config loads Vantage configuration from config.toml, an optional
// environment overlay, and VANTAGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/vantage/internal/model"
	"github.com/JaimeStill/vantage/pkg/database"
	"github.com/JaimeStill/vantage/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvVantageEnv             = "VANTAGE_ENV"
	EnvVantageConfig          = "VANTAGE_CONFIG"
	EnvVantageShutdownTimeout = "VANTAGE_SHUTDOWN_TIMEOUT"
	EnvVantageVersion         = "VANTAGE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "VANTAGE_DB_HOST",
	Port:            "VANTAGE_DB_PORT",
	Name:            "VANTAGE_DB_NAME",
	User:            "VANTAGE_DB_USER",
	Password:        "VANTAGE_DB_PASSWORD",
	SSLMode:         "VANTAGE_DB_SSL_MODE",
	MaxOpenConns:    "VANTAGE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VANTAGE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VANTAGE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VANTAGE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "VANTAGE_STORAGE_PROVIDER",
	ContainerName:    "VANTAGE_STORAGE_CONTAINER_NAME",
	ConnectionString: "VANTAGE_STORAGE_CONNECTION_STRING",
	AccountURL:       "VANTAGE_STORAGE_ACCOUNT_URL",
	Root:             "VANTAGE_STORAGE_ROOT",
}

var modelEnv = &model.Env{
	Provider:  "VANTAGE_MODEL_PROVIDER",
	Name:      "VANTAGE_MODEL_NAME",
	APIKey:    "VANTAGE_MODEL_API_KEY",
	BaseURL:   "VANTAGE_MODEL_BASE_URL",
	MaxTokens: "VANTAGE_MODEL_MAX_TOKENS",
	Timeout:   "VANTAGE_MODEL_TIMEOUT",
}

// Config is the root configuration for the Vantage service and CLI.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Logging         LoggingConfig   `toml:"logging"`
	Model           model.Config    `toml:"model"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the VANTAGE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVantageEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay
// and then each override in order, and finalizes all values. VANTAGE_CONFIG
// replaces the base file path. If no base file exists, defaults and
// environment variables provide all configuration.
//
// A .env file in the working directory is read first. Its entries never
// replace variables already set in the process environment.
func Load(overrides ...*Config) (*Config, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
		}
	}

	cfg := &Config{}

	base := BaseConfigFile
	if v := os.Getenv(EnvVantageConfig); v != "" {
		base = v
	}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	for _, o := range overrides {
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Logging.Merge(&overlay.Logging)
	c.Model.Merge(&overlay.Model)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Model.Finalize(modelEnv); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVantageShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVantageVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVantageEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
