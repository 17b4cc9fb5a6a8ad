// Package storage provides blob storage operations with Azure Blob Storage
// and local filesystem implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/vantage/pkg/lifecycle"
)

// Supported storage providers.
const (
	ProviderAzure = "azure"
	ProviderLocal = "local"
)

// System manages blob storage operations and lifecycle coordination.
type System interface {
	// Start registers a startup hook that prepares the storage backend.
	Start(lc *lifecycle.Coordinator) error
	// Upload streams data to a blob at the given key with the specified content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob at the given key. Returns ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, key string) error
	// Exists reports whether a blob exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// New creates a storage system for the configured provider.
// No connection is established until Start is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderAzure:
		return newAzure(cfg, logger)
	case ProviderLocal:
		return NewLocal(cfg.Root, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// validateKey accepts relative slash-separated keys. Absolute keys,
// backslashes, and "." or ".." segments are rejected.
func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
	}
	return nil
}
