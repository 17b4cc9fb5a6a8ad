package model

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds vision model provider settings.
type Config struct {
	Provider  string `toml:"provider"`
	Name      string `toml:"name"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	MaxTokens int64  `toml:"max_tokens"`
	Timeout   string `toml:"timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider  string
	Name      string
	APIKey    string
	BaseURL   string
	MaxTokens string
	Timeout   string
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Name != "" {
		c.Name = overlay.Name
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Name == "" {
		c.Name = "claude-sonnet-4-5"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 16384
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.Name != "" {
		if v := os.Getenv(env.Name); v != "" {
			c.Name = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.MaxTokens != "" {
		if v := os.Getenv(env.MaxTokens); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				c.MaxTokens = n
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Provider != ProviderAnthropic {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	if c.Name == "" {
		return fmt.Errorf("name required")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("invalid max_tokens: %d", c.MaxTokens)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	return nil
}
