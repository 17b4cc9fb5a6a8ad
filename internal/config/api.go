package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/vantage/pkg/formatting"
	"github.com/JaimeStill/vantage/pkg/middleware"
	"github.com/JaimeStill/vantage/pkg/module"
	"github.com/JaimeStill/vantage/pkg/pagination"
)

const (
	EnvAPIBasePath      = "VANTAGE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "VANTAGE_API_MAX_UPLOAD_SIZE"

	// a tile upload carries two PNGs and two label documents
	defaultMaxUploadSize = "50MB"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VANTAGE_CORS_ENABLED",
	Origins:          "VANTAGE_CORS_ORIGINS",
	AllowedMethods:   "VANTAGE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VANTAGE_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "VANTAGE_CORS_EXPOSED_HEADERS",
	AllowCredentials: "VANTAGE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VANTAGE_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VANTAGE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VANTAGE_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds the API mount point, the multipart upload bound, CORS,
// and pagination.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`

	maxUploadBytes int64
}

// MaxUploadSizeBytes returns the parsed upload bound. Valid after Finalize.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadBytes
}

// Finalize applies defaults and environment overrides, then validates the
// API config along with its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}

	if err := module.ValidatePrefix(c.BasePath); err != nil {
		return fmt.Errorf("base_path: %w", err)
	}

	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive: %s", c.MaxUploadSize)
	}
	c.maxUploadBytes = size

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}
