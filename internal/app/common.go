package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/addonsweep/internal/catalog"
	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/config"
	"github.com/blackwell-systems/addonsweep/internal/host"
	"github.com/blackwell-systems/addonsweep/internal/inventory"
	"github.com/blackwell-systems/addonsweep/internal/registry"
	"github.com/blackwell-systems/addonsweep/internal/registry/postgres"
	"github.com/blackwell-systems/addonsweep/internal/removal"
	"github.com/blackwell-systems/addonsweep/internal/resolver"
	"github.com/blackwell-systems/addonsweep/internal/scanner"
)

// registryFile is the SQLite registry file name used when no DSN is set.
const registryFile = "registry.db"

// env holds the components a command works with, built from one config.
type env struct {
	cfg         *config.Config
	logger      *slog.Logger
	registry    registry.Registry
	engine      *classifier.Engine
	remover     *removal.Orchestrator
	uninstaller *host.CommandUninstaller
}

// openEnv loads the configuration and wires the registry, engine and
// removal orchestrator. Callers must Close the env.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	reg, err := openRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine, err := newEngine(cfg, reg)
	if err != nil {
		reg.Close()
		return nil, err
	}

	un := host.NewCommandUninstaller(cfg.Uninstall.Command, cfg.Host.Root)
	return &env{
		cfg:         cfg,
		logger:      logger,
		registry:    reg,
		engine:      engine,
		remover:     removal.New(reg, un, cfg.Protected(), logger),
		uninstaller: un,
	}, nil
}

// Close releases the registry connection.
func (e *env) Close() error {
	return e.registry.Close()
}

// newLogger returns the diagnostic logger. Operator-facing output goes to
// stdout; diagnostics go to stderr.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

// openRegistry opens the configured registry store. The SQLite store is
// migrated on open; a PostgreSQL schema belongs to the host and is used as is.
func openRegistry(ctx context.Context, cfg *config.Config) (registry.Registry, error) {
	switch cfg.Registry.Driver {
	case config.DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.Registry.DSN, cfg.Registry.Table)
		if err != nil {
			return nil, err
		}
		return db, nil

	default:
		path, err := sqlitePath(cfg)
		if err != nil {
			return nil, err
		}
		st, err := registry.New(path)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	}
}

// sqlitePath returns the configured SQLite path, defaulting to
// registry.db inside the config directory.
func sqlitePath(cfg *config.Config) (string, error) {
	if cfg.Registry.DSN != "" {
		return cfg.Registry.DSN, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return filepath.Join(dir, registryFile), nil
}

// newEngine builds the classification engine over reg.
func newEngine(cfg *config.Config, reg registry.Registry) (*classifier.Engine, error) {
	cat, err := catalog.FromConfig(cfg.Scan.Patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule catalog: %w", err)
	}
	sc := scanner.New(cat, cfg.Scan.Extensions)
	sc.SetWorkers(cfg.Scan.Workers)

	return classifier.NewEngine(
		inventory.New(reg, cfg.Product.Prefix),
		resolver.New(cfg.Roots()),
		sc,
		classifier.New(cfg.Protected()),
	), nil
}
