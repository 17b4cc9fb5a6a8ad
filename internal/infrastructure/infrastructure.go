// Package infrastructure assembles the systems every domain module shares:
// the lifecycle coordinator, the logger, the database pool, and blob storage.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/pkg/database"
	"github.com/JaimeStill/vantage/pkg/lifecycle"
	"github.com/JaimeStill/vantage/pkg/storage"
)

// Infrastructure holds the shared systems. New only constructs them;
// connections are verified by the startup hooks registered in Start.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration,
// logging to stderr.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with the log destination supplied by the caller.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, w)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// NewLogger builds the root logger for the configured format and level.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.JSON() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers the database and storage hooks with the coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
