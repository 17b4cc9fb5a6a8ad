package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/pkg/database"
	"github.com/JaimeStill/vantage/pkg/storage"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Database: database.Config{Host: "127.0.0.1", Port: 1, ConnTimeout: "200ms"},
		Storage:  storage.Config{Provider: storage.ProviderLocal, Root: filepath.Join(t.TempDir(), "blobs")},
	}
	if err := cfg.Database.Finalize(nil); err != nil {
		t.Fatalf("database finalize: %v", err)
	}
	if err := cfg.Storage.Finalize(nil); err != nil {
		t.Fatalf("storage finalize: %v", err)
	}
	if err := cfg.Logging.Finalize(); err != nil {
		t.Fatalf("logging finalize: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.NewWithWriter(localConfig(t), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if infra.Lifecycle == nil || infra.Logger == nil || infra.Database == nil || infra.Storage == nil {
		t.Errorf("incomplete infrastructure: %+v", infra)
	}
}

func TestNewUnknownStorageProvider(t *testing.T) {
	cfg := localConfig(t)
	cfg.Storage.Provider = "s3"

	if _, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown storage provider")
	}
}

func TestStartupReportsUnreachableDatabase(t *testing.T) {
	var logs bytes.Buffer
	infra, err := infrastructure.NewWithWriter(localConfig(t), &logs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err = infra.Lifecycle.WaitForStartup()
	if err == nil || !strings.Contains(err.Error(), "database") {
		t.Fatalf("WaitForStartup error = %v, want database failure", err)
	}
	if infra.Lifecycle.Ready() {
		t.Error("should not be ready with an unreachable database")
	}

	if err := infra.Lifecycle.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
	if !strings.Contains(logs.String(), "storage root ready") {
		t.Errorf("storage hook should still run, logs:\n%s", logs.String())
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("dropped")
	logger.Warn("kept", "tile", "santa-rosa-wildfire_00000001")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines: got %d, want 1:\n%s", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if record["msg"] != "kept" || record["tile"] != "santa-rosa-wildfire_00000001" {
		t.Errorf("record: %v", record)
	}
}
