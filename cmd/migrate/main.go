// Command migrate applies the embedded schema migrations. The connection
// string comes from -dsn, then VANTAGE_DB_DSN, then the database section
// of the service configuration.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/vantage/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "VANTAGE_DB_DSN"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var (
		dsn     = flag.String("dsn", "", "database connection string")
		up      = flag.Bool("up", false, "apply all up migrations")
		down    = flag.Bool("down", false, "revert all migrations")
		steps   = flag.Int("steps", 0, "number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "print the current migration version")
		force   = flag.Int("force", -1, "force the recorded version without migrating")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	url, err := resolveDSN(*dsn)
	if err != nil {
		fatal(logger, "resolve connection string", err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		fatal(logger, "open migration source", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		fatal(logger, "create migrator", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if err != nil {
			fatal(logger, "read version", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			fatal(logger, "force version", err)
		}
		logger.Info("version forced", "version", *force)
	case *up:
		run(logger, "up", m.Up())
	case *down:
		run(logger, "down", m.Down())
	case *steps != 0:
		run(logger, fmt.Sprintf("steps %d", *steps), m.Steps(*steps))
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Database.URL(), nil
}

func run(logger *slog.Logger, op string, err error) {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to apply", "op", op)
		return
	}
	if err != nil {
		fatal(logger, "migrate "+op, err)
	}
	logger.Info("migrations applied", "op", op)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
