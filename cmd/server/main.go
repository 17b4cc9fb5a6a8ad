// Command server runs the Vantage HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/vantage/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	srv.infra.Logger.Info(
		"vantage starting",
		"version", cfg.Version,
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
	)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	srv.infra.Logger.Info("vantage stopped")
	return nil
}
