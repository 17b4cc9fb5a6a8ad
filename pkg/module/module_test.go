package module_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/vantage/pkg/module"
)

func echoPath(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body + " " + r.URL.Path))
	})
}

func TestNewPrefix(t *testing.T) {
	valid := []string{"/api", "/api/v1", "/blobs"}
	for _, prefix := range valid {
		t.Run(prefix, func(t *testing.T) {
			if got := module.New(prefix, http.NewServeMux()).Prefix(); got != prefix {
				t.Errorf("prefix: got %s, want %s", got, prefix)
			}
		})
	}

	invalid := []struct {
		name   string
		prefix string
	}{
		{"empty", ""},
		{"relative", "api"},
		{"root", "/"},
		{"trailing slash", "/api/"},
		{"empty segment", "/api//v1"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for %q", tt.prefix)
				}
			}()
			module.New(tt.prefix, http.NewServeMux())
		})
	}
}

func TestMatches(t *testing.T) {
	m := module.New("/api", http.NewServeMux())

	tests := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/tiles", true},
		{"/apindex", false},
		{"/healthz", false},
	}

	for _, tt := range tests {
		if got := m.Matches(tt.path); got != tt.want {
			t.Errorf("Matches(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestServeStripsPrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"nested", "/api/tiles/123", "api /tiles/123"},
		{"root", "/api", "api /"},
	}

	m := module.New("/api", echoPath("api"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.Serve(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModuleMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	m := module.New("/api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	m.Use(tag("logger"), tag("recover"))

	m.Serve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api", nil))

	if diff := cmp.Diff([]string{"logger", "recover", "handler"}, order); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestRouterLongestPrefix(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", echoPath("api")))
	router.Mount(module.New("/api/v2", echoPath("v2")))
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"base module", "/api/tiles", "api /tiles"},
		{"nested module", "/api/v2/tiles", "v2 /tiles"},
		{"trailing slash", "/api/tiles/", "api /tiles"},
		{"native fallback", "/healthz", "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body: got %q, want %q", got, tt.want)
			}
		})
	}

	if diff := cmp.Diff([]string{"/api/v2", "/api"}, router.Prefixes()); diff != "" {
		t.Errorf("prefixes (-want +got):\n%s", diff)
	}
}

func TestRouterRemount(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", echoPath("old")))
	router.Mount(module.New("/api", echoPath("new")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if got := rec.Body.String(); got != "new /" {
		t.Errorf("body: got %q, want %q", got, "new /")
	}
	if len(router.Prefixes()) != 1 {
		t.Errorf("prefixes: got %v", router.Prefixes())
	}
}

func TestRouterUnknownPath(t *testing.T) {
	router := module.NewRouter()
	router.Mount(module.New("/api", echoPath("api")))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}
