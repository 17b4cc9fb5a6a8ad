package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	handler http.Handler
	http    *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("infrastructure: %w", err)
	}
	return newServer(cfg, infra)
}

func newServer(cfg *config.Config, infra *infrastructure.Infrastructure) (*Server, error) {
	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, fmt.Errorf("modules: %w", err)
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"modules", router.Prefixes(),
	)

	return &Server{
		infra:   infra,
		modules: modules,
		handler: router,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start launches subsystem startup hooks and the listener. Startup hook
// failures are reported asynchronously and keep /readyz at 503.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return fmt.Errorf("infrastructure start: %w", err)
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		started := time.Now()
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Error("subsystem startup failed", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready", "elapsed", time.Since(started))
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
