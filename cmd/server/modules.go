package main

import (
	"net/http"

	"github.com/JaimeStill/vantage/internal/api"
	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/pkg/handlers"
	"github.com/JaimeStill/vantage/pkg/module"
)

// Modules holds every module mounted on the root router.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", healthz)
	router.HandleNative("GET /readyz", readyz(infra))
	return router
}

// healthz reports liveness only; it never touches dependencies.
func healthz(w http.ResponseWriter, _ *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz is 503 until every startup hook has succeeded, and while the
// database does not answer a ping.
func readyz(infra *infrastructure.Infrastructure) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			status := map[string]string{"status": "not ready"}
			if err := infra.Lifecycle.Err(); err != nil {
				status["error"] = err.Error()
			}
			handlers.RespondJSON(w, http.StatusServiceUnavailable, status)
			return
		}

		if err := infra.Database.Ping(r.Context()); err != nil {
			infra.Logger.Warn("readiness ping failed", "error", err)
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}

		stats := infra.Database.Stats()
		handlers.RespondJSON(w, http.StatusOK, map[string]any{
			"status":      "ready",
			"db_open":     stats.OpenConnections,
			"db_in_use":   stats.InUse,
			"db_max_open": stats.MaxOpenConnections,
		})
	}
}
