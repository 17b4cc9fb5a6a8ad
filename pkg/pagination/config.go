// Package pagination parses page requests and shapes paginated list responses.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// MaxPageSizeLimit caps max_page_size so one list request cannot pull an
// unbounded result set.
const MaxPageSizeLimit = 1000

// Config bounds the page sizes clients may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv maps environment variable names for pagination configuration.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) loadDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{env.DefaultPageSize, &c.DefaultPageSize},
		{env.MaxPageSize, &c.MaxPageSize},
	} {
		if f.name == "" {
			continue
		}
		if n, err := strconv.Atoi(os.Getenv(f.name)); err == nil {
			*f.dst = n
		}
	}
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be positive")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be positive")
	}
	if c.MaxPageSize > MaxPageSizeLimit {
		return fmt.Errorf("max_page_size cannot exceed %d", MaxPageSizeLimit)
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	}
	return nil
}
