package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/pkg/database"
	"github.com/JaimeStill/vantage/pkg/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load(&config.Config{
		Database: database.Config{Host: "127.0.0.1", Port: 1, ConnTimeout: "200ms"},
		Storage:  storage.Config{Provider: storage.ProviderLocal, Root: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	infra, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	srv, err := newServer(cfg, infra)
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return srv
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.handler, "/healthz")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("healthz: got %d %v", code, body)
	}
}

func TestReadyzBeforeStartup(t *testing.T) {
	srv := newTestServer(t)

	code, body := get(t, srv.handler, "/readyz")
	if code != http.StatusServiceUnavailable || body["status"] != "not ready" {
		t.Errorf("readyz: got %d %v", code, body)
	}
}

func TestReadyzAfterFailedStartup(t *testing.T) {
	srv := newTestServer(t)

	if err := srv.infra.Start(); err != nil {
		t.Fatalf("infra start: %v", err)
	}
	if err := srv.infra.Lifecycle.WaitForStartup(); err == nil {
		t.Fatal("expected startup failure for unreachable database")
	}

	code, body := get(t, srv.handler, "/readyz")
	if code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", code)
	}
	if body["error"] == "" {
		t.Errorf("expected startup error in body, got %v", body)
	}
}
