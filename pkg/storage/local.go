package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/vantage/pkg/lifecycle"
)

type local struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates a storage system rooted at a filesystem directory.
// Keys map to slash-separated paths beneath root.
func NewLocal(root string, logger *slog.Logger) System {
	return &local{root: root, logger: logger}
}

func (l *local) Start(lc *lifecycle.Coordinator) error {
	l.logger.Info("starting storage system")

	lc.OnStartup("storage", func() error {
		if err := os.MkdirAll(l.root, 0o755); err != nil {
			l.logger.Error("storage root initialization failed", "error", err)
			return err
		}
		l.logger.Info("storage root ready", "root", l.root)
		return nil
	})

	return nil
}

func (l *local) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("upload blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("upload blob %s: %w", key, err)
	}

	return nil
}

func (l *local) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %s: %w", key, err)
	}

	return f, nil
}

func (l *local) Delete(ctx context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blob %s: %w", key, err)
	}

	return nil
}

func (l *local) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("check blob existence %s: %w", key, err)
	}

	return true, nil
}

func (l *local) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}
