package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLoggingLevel  = "VANTAGE_LOG_LEVEL"
	EnvLoggingFormat = "VANTAGE_LOG_FORMAT"
)

// LoggingConfig selects the slog handler and minimum level.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SlogLevel returns Level as a slog.Level. Finalize guarantees it parses.
func (c *LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	level.UnmarshalText([]byte(c.Level))
	return level
}

// JSON reports whether records are written as JSON rather than text.
func (c *LoggingConfig) JSON() bool {
	return c.Format == "json"
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LoggingConfig) Finalize() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}

	if v := os.Getenv(EnvLoggingLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvLoggingFormat); v != "" {
		c.Format = v
	}

	c.Level = strings.ToLower(c.Level)
	c.Format = strings.ToLower(c.Format)

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level %q", c.Level)
	}
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}
