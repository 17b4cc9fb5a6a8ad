package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/vantage/pkg/routes"
)

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func assessmentGroups() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/tiles",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: respond("list tiles")},
				{Method: "GET", Pattern: "/{id}", Handler: respond("find tile")},
			},
		},
		{
			Prefix: "/assessments",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: respond("find assessment")},
			},
			Children: []routes.Group{
				{
					Prefix: "/{id}/exports",
					Routes: []routes.Route{
						{Method: "GET", Pattern: "/geojson", Handler: respond("geojson")},
					},
				},
			},
		},
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	registered := routes.Register(mux, assessmentGroups()...)

	want := []string{
		"GET /tiles",
		"GET /tiles/{id}",
		"GET /assessments/{id}",
		"GET /assessments/{id}/exports/geojson",
	}
	if diff := cmp.Diff(want, registered); diff != "" {
		t.Errorf("registered (-want +got):\n%s", diff)
	}

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{"GET", "/tiles", http.StatusOK, "list tiles"},
		{"GET", "/tiles/abc", http.StatusOK, "find tile"},
		{"GET", "/assessments/abc/exports/geojson", http.StatusOK, "geojson"},
		{"POST", "/tiles", http.StatusMethodNotAllowed, ""},
		{"GET", "/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.status {
				t.Errorf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body: got %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestPatternsMatchesRegister(t *testing.T) {
	groups := assessmentGroups()
	registered := routes.Register(http.NewServeMux(), groups...)

	if diff := cmp.Diff(registered, routes.Patterns(groups...)); diff != "" {
		t.Errorf("Patterns differs from Register (-register +patterns):\n%s", diff)
	}
}
