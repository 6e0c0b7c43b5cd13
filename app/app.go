// Package app wires configuration, logging, the optional database and the HTTP
// server together and runs them until the process is asked to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/dbworkbench/config"
	"github.com/gaborage/dbworkbench/database"
	"github.com/gaborage/dbworkbench/logger"
	"github.com/gaborage/dbworkbench/observability"
	"github.com/gaborage/dbworkbench/server"
	"github.com/gaborage/dbworkbench/workbench"
)

// connect opens the configured database. Tests replace it.
var connect = database.NewConnection

// App holds the running components.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	otel     observability.Provider
	db       database.Interface
	compiler *workbench.Compiler
	runner   *workbench.Runner
	server   *server.Server
}

// New builds the application from cfg. A missing database configuration is not
// an error: the server then compiles queries but refuses to run them.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	// The provider comes first so the database and server instruments bind to it.
	provider, err := observability.NewProvider(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, errors.Join(err, provider.Shutdown(context.Background()))
	}

	compiler := workbench.NewCompiler(&cfg.Query)
	runner := workbench.NewRunner(compiler, db, cfg.Query.Timeout, log)

	a := &App{
		cfg:      cfg,
		logger:   log,
		otel:     provider,
		db:       db,
		compiler: compiler,
		runner:   runner,
	}
	a.server = server.New(cfg, log, server.Deps{Compiler: compiler, Runner: runner, DB: db})

	return a, nil
}

// OpenDatabase connects to the configured database and returns nil when none is configured.
func OpenDatabase(cfg *config.Config, log logger.Logger) (database.Interface, error) {
	db, err := connect(&cfg.Database, &cfg.Query, log)
	if config.IsNotConfigured(err) {
		log.Info().Msg("No database configured, queries can be compiled but not run")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().
		Str("dialect", db.Dialect().String()).
		Msg("Database connection established")
	return db, nil
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Runner returns the query runner bound to the application's database.
func (a *App) Runner() *workbench.Runner {
	return a.runner
}

// Run serves HTTP until ctx is cancelled, SIGINT or SIGTERM arrives, or the server fails,
// then shuts down within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down application")

		timeout := a.cfg.Server.Timeout.Shutdown
		if timeout <= 0 {
			timeout = server.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), timeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops the server, closes the database connection and flushes telemetry last.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown observability: %w", err))
	}

	a.logger.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}
