package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/vantage/internal/api"
	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/pkg/module"
	"github.com/JaimeStill/vantage/pkg/routes"
	"github.com/JaimeStill/vantage/pkg/storage"
)

func newInfrastructure(t *testing.T) (*config.Config, *infrastructure.Infrastructure) {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load(&config.Config{
		Storage: storage.Config{Provider: storage.ProviderLocal, Root: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	infra, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}
	return cfg, infra
}

func newRouter(t *testing.T) (*module.Router, storage.System) {
	t.Helper()
	cfg, infra := newInfrastructure(t)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)
	return router, infra.Storage
}

func TestModulePrefix(t *testing.T) {
	router, _ := newRouter(t)
	if got := router.Prefixes(); len(got) != 1 || got[0] != "/api" {
		t.Errorf("prefixes: got %v, want [/api]", got)
	}
}

func TestBlobDownload(t *testing.T) {
	router, store := newRouter(t)

	key := "assessments/0001/assessment.json"
	if err := store.Upload(context.Background(), key, strings.NewReader(`{"type":"FeatureCollection"}`), "application/json"); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"stored blob", "/api/blobs/" + key, http.StatusOK},
		{"missing blob", "/api/blobs/assessments/none.json", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d: %s", rec.Code, tt.status, rec.Body)
			}
			if tt.status != http.StatusOK {
				return
			}
			if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="assessment.json"` {
				t.Errorf("content-disposition: got %q", got)
			}
			if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
				t.Errorf("content-type: got %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestEvaluationRoute(t *testing.T) {
	router, _ := newRouter(t)

	body := "tile_id,pred_class,fema_class\nt1,destroyed,destroyed\nt2,no-damage,minor-damage\n"
	req := httptest.NewRequest(http.MethodPost, "/api/evaluations", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"evaluated":2`) {
		t.Errorf("body: %s", rec.Body)
	}
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestDomainGroups(t *testing.T) {
	cfg, infra := newInfrastructure(t)

	runtime, err := api.NewRuntime(cfg, infra)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if runtime.MaxUploadSize != cfg.API.MaxUploadSizeBytes() {
		t.Errorf("max upload: got %d, want %d", runtime.MaxUploadSize, cfg.API.MaxUploadSizeBytes())
	}

	domain := api.NewDomain(runtime)
	patterns := make(map[string]bool)
	for _, p := range routes.Patterns(domain.Groups(runtime.MaxUploadSize)...) {
		patterns[p] = true
	}

	for _, want := range []string{
		"POST /tiles",
		"POST /assessments/tile/{tileId}",
		"GET /assessments/{id}/geojson",
		"POST /evaluations",
		"GET /blobs/{key...}",
	} {
		if !patterns[want] {
			t.Errorf("missing route %q", want)
		}
	}
}
