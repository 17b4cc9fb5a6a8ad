// Package api mounts the tiles, assessments, evaluations, and blob routes
// as one module under the configured base path.
package api

import (
	"net/http"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/pkg/middleware"
	"github.com/JaimeStill/vantage/pkg/module"
)

// NewModule builds the API module. Middleware runs in order: request
// logging, panic recovery, then CORS.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registered := registerRoutes(mux, NewDomain(runtime), runtime)
	runtime.Logger.Debug("routes registered", "base_path", cfg.API.BasePath, "routes", registered)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)
	return m, nil
}
