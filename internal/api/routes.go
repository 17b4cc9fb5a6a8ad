package api

import (
	"net/http"

	"github.com/JaimeStill/vantage/pkg/routes"
)

// registerRoutes binds the domain's groups to mux and returns the
// registered patterns.
func registerRoutes(mux *http.ServeMux, domain *Domain, runtime *Runtime) []string {
	return routes.Register(mux, domain.Groups(runtime.MaxUploadSize)...)
}
