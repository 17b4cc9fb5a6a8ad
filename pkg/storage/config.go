package storage

import (
	"fmt"
	"os"
)

// Config holds blob storage parameters. Azure storage uses either
// ConnectionString or AccountURL with the default credential chain.
// Local storage uses Root.
type Config struct {
	Provider         string `toml:"provider"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	Root             string `toml:"root"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
	AccountURL       string
	Root             string
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
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "tiles"
	}
	if c.Root == "" {
		c.Root = "data"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Provider, &c.Provider)
	set(env.ContainerName, &c.ContainerName)
	set(env.ConnectionString, &c.ConnectionString)
	set(env.AccountURL, &c.AccountURL)
	set(env.Root, &c.Root)
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderAzure:
		if c.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.ConnectionString == "" && c.AccountURL == "" {
			return fmt.Errorf("connection_string or account_url required")
		}
	case ProviderLocal:
		if c.Root == "" {
			return fmt.Errorf("root required")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
	return nil
}
