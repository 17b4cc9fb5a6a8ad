package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvPipelineBatchSize     = "VANTAGE_PIPELINE_BATCH_SIZE"
	EnvPipelineConcurrency   = "VANTAGE_PIPELINE_CONCURRENCY"
	EnvPipelineBatchInterval = "VANTAGE_PIPELINE_BATCH_INTERVAL"
	EnvPipelineMargin        = "VANTAGE_PIPELINE_MARGIN"
	EnvPipelineMinBoxPixels  = "VANTAGE_PIPELINE_MIN_BOX_PIXELS"

	EnvRetryMaxAttempts       = "VANTAGE_RETRY_MAX_ATTEMPTS"
	EnvRetryBaseDelay         = "VANTAGE_RETRY_BASE_DELAY"
	EnvRetryMaxDelay          = "VANTAGE_RETRY_MAX_DELAY"
	EnvRetryRateLimitPad      = "VANTAGE_RETRY_RATE_LIMIT_PAD"
	EnvRetryRateLimitDefault  = "VANTAGE_RETRY_RATE_LIMIT_DEFAULT"
	EnvRetryRateLimitMax      = "VANTAGE_RETRY_RATE_LIMIT_MAX"
	EnvRetryValidationRetries = "VANTAGE_RETRY_VALIDATION_RETRIES"
)

// PipelineConfig holds batch scheduling and projection settings.
// Margin is a pointer so an explicit zero survives defaulting.
type PipelineConfig struct {
	BatchSize     int         `toml:"batch_size"`
	Concurrency   int         `toml:"concurrency"`
	BatchInterval string      `toml:"batch_interval"`
	Margin        *float64    `toml:"margin"`
	MinBoxPixels  *int        `toml:"min_box_pixels"`
	Retry         RetryConfig `toml:"retry"`
}

// RetryConfig holds retry controller settings.
type RetryConfig struct {
	MaxAttempts       int    `toml:"max_attempts"`
	BaseDelay         string `toml:"base_delay"`
	MaxDelay          string `toml:"max_delay"`
	RateLimitPad      string `toml:"rate_limit_pad"`
	RateLimitDefault  string `toml:"rate_limit_default"`
	RateLimitMax      string `toml:"rate_limit_max"`
	ValidationRetries *int   `toml:"validation_retries"`
}

// BatchIntervalDuration returns BatchInterval as a time.Duration.
func (c *PipelineConfig) BatchIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.BatchInterval)
	return d
}

// MarginValue returns the configured margin.
func (c *PipelineConfig) MarginValue() float64 {
	if c.Margin == nil {
		return 0.10
	}
	return *c.Margin
}

// MinBoxPixelsValue returns the configured minimum box side.
func (c *PipelineConfig) MinBoxPixelsValue() int {
	if c.MinBoxPixels == nil {
		return 5
	}
	return *c.MinBoxPixels
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Retry.Finalize(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.BatchInterval != "" {
		c.BatchInterval = overlay.BatchInterval
	}
	if overlay.Margin != nil {
		c.Margin = overlay.Margin
	}
	if overlay.MinBoxPixels != nil {
		c.MinBoxPixels = overlay.MinBoxPixels
	}
	c.Retry.Merge(&overlay.Retry)
}

func (c *PipelineConfig) loadDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 85
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.BatchInterval == "" {
		c.BatchInterval = "0s"
	}
	if c.Margin == nil {
		m := 0.10
		c.Margin = &m
	}
	if c.MinBoxPixels == nil {
		n := 5
		c.MinBoxPixels = &n
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		}
	}
	if v := os.Getenv(EnvPipelineConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
	if v := os.Getenv(EnvPipelineBatchInterval); v != "" {
		c.BatchInterval = v
	}
	if v := os.Getenv(EnvPipelineMargin); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Margin = &f
		}
	}
	if v := os.Getenv(EnvPipelineMinBoxPixels); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MinBoxPixels = &n
		}
	}
}

func (c *PipelineConfig) validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("invalid batch_size: %d", c.BatchSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency: %d", c.Concurrency)
	}
	if _, err := time.ParseDuration(c.BatchInterval); err != nil {
		return fmt.Errorf("invalid batch_interval: %w", err)
	}
	if *c.Margin < 0 {
		return fmt.Errorf("invalid margin: %v", *c.Margin)
	}
	if *c.MinBoxPixels < 0 {
		return fmt.Errorf("invalid min_box_pixels: %d", *c.MinBoxPixels)
	}
	return nil
}

// BaseDelayDuration returns BaseDelay as a time.Duration.
func (c *RetryConfig) BaseDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.BaseDelay)
	return d
}

// MaxDelayDuration returns MaxDelay as a time.Duration.
func (c *RetryConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// RateLimitPadDuration returns RateLimitPad as a time.Duration.
func (c *RetryConfig) RateLimitPadDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateLimitPad)
	return d
}

// RateLimitDefaultDuration returns RateLimitDefault as a time.Duration.
func (c *RetryConfig) RateLimitDefaultDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateLimitDefault)
	return d
}

// RateLimitMaxDuration returns RateLimitMax as a time.Duration.
func (c *RetryConfig) RateLimitMaxDuration() time.Duration {
	d, _ := time.ParseDuration(c.RateLimitMax)
	return d
}

// ValidationRetriesValue returns the configured validation retry count.
func (c *RetryConfig) ValidationRetriesValue() int {
	if c.ValidationRetries == nil {
		return 1
	}
	return *c.ValidationRetries
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RetryConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RetryConfig) Merge(overlay *RetryConfig) {
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.BaseDelay != "" {
		c.BaseDelay = overlay.BaseDelay
	}
	if overlay.MaxDelay != "" {
		c.MaxDelay = overlay.MaxDelay
	}
	if overlay.RateLimitPad != "" {
		c.RateLimitPad = overlay.RateLimitPad
	}
	if overlay.RateLimitDefault != "" {
		c.RateLimitDefault = overlay.RateLimitDefault
	}
	if overlay.RateLimitMax != "" {
		c.RateLimitMax = overlay.RateLimitMax
	}
	if overlay.ValidationRetries != nil {
		c.ValidationRetries = overlay.ValidationRetries
	}
}

func (c *RetryConfig) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay == "" {
		c.BaseDelay = "2s"
	}
	if c.MaxDelay == "" {
		c.MaxDelay = "60s"
	}
	if c.RateLimitPad == "" {
		c.RateLimitPad = "5s"
	}
	if c.RateLimitDefault == "" {
		c.RateLimitDefault = "40s"
	}
	if c.RateLimitMax == "" {
		c.RateLimitMax = "5m"
	}
	if c.ValidationRetries == nil {
		n := 1
		c.ValidationRetries = &n
	}
}

func (c *RetryConfig) loadEnv() {
	if v := os.Getenv(EnvRetryMaxAttempts); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxAttempts = n
		}
	}
	if v := os.Getenv(EnvRetryBaseDelay); v != "" {
		c.BaseDelay = v
	}
	if v := os.Getenv(EnvRetryMaxDelay); v != "" {
		c.MaxDelay = v
	}
	if v := os.Getenv(EnvRetryRateLimitPad); v != "" {
		c.RateLimitPad = v
	}
	if v := os.Getenv(EnvRetryRateLimitDefault); v != "" {
		c.RateLimitDefault = v
	}
	if v := os.Getenv(EnvRetryRateLimitMax); v != "" {
		c.RateLimitMax = v
	}
	if v := os.Getenv(EnvRetryValidationRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ValidationRetries = &n
		}
	}
}

func (c *RetryConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("invalid max_attempts: %d", c.MaxAttempts)
	}
	if *c.ValidationRetries < 0 {
		return fmt.Errorf("invalid validation_retries: %d", *c.ValidationRetries)
	}
	for name, v := range map[string]string{
		"base_delay":         c.BaseDelay,
		"max_delay":          c.MaxDelay,
		"rate_limit_pad":     c.RateLimitPad,
		"rate_limit_default": c.RateLimitDefault,
		"rate_limit_max":     c.RateLimitMax,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
