package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "VANTAGE_SERVER_HOST"
	EnvServerPort            = "VANTAGE_SERVER_PORT"
	EnvServerReadTimeout     = "VANTAGE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "VANTAGE_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout     = "VANTAGE_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout = "VANTAGE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. WriteTimeout bounds a
// whole synchronous assessment, so it is much longer than ReadTimeout.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return mustDuration(c.ReadTimeout) }

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return mustDuration(c.WriteTimeout) }

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *ServerConfig) IdleTimeoutDuration() time.Duration { return mustDuration(c.IdleTimeout) }

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	for _, f := range []struct{ dst *string; v string }{
		{&c.Host, overlay.Host},
		{&c.ReadTimeout, overlay.ReadTimeout},
		{&c.WriteTimeout, overlay.WriteTimeout},
		{&c.IdleTimeout, overlay.IdleTimeout},
		{&c.ShutdownTimeout, overlay.ShutdownTimeout},
	} {
		if f.v != "" {
			*f.dst = f.v
		}
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "1m"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "15m"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "2m"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for _, f := range []struct{ dst *string; env string }{
		{&c.ReadTimeout, EnvServerReadTimeout},
		{&c.WriteTimeout, EnvServerWriteTimeout},
		{&c.IdleTimeout, EnvServerIdleTimeout},
		{&c.ShutdownTimeout, EnvServerShutdownTimeout},
	} {
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range []struct{ name, v string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"idle_timeout", c.IdleTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	} {
		if _, err := time.ParseDuration(f.v); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	if c.WriteTimeoutDuration() < c.ReadTimeoutDuration() {
		return fmt.Errorf("write_timeout (%s) shorter than read_timeout (%s)", c.WriteTimeout, c.ReadTimeout)
	}
	return nil
}

// mustDuration parses values that validate has already accepted.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
