// Package app wires configuration, telemetry, the generation backend and the
// HTTP API into a runnable proposal service.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gaborage/go-proposals/api"
	"github.com/gaborage/go-proposals/config"
	"github.com/gaborage/go-proposals/generation"
	"github.com/gaborage/go-proposals/logger"
	"github.com/gaborage/go-proposals/observability"
	"github.com/gaborage/go-proposals/server"
	"github.com/gaborage/go-proposals/submission"
)

// App represents the main application instance.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   ServerRunner
	backend  generation.Backend
	provider observability.Provider
	api      *api.Module
	health   *healthChecker

	shutdownOnce sync.Once
	shutdownErr  error
}

// New loads the configuration from the environment and builds the App.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg, nil)
}

// NewWithConfig builds the App from cfg. opts may be nil.
func NewWithConfig(cfg *config.Config, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}
	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	var obsOpts []observability.Option
	if opts.TelemetryWriter != nil {
		obsOpts = append(obsOpts, observability.WithWriter(opts.TelemetryWriter))
	}
	provider, err := observability.NewProvider(cfg, log, obsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	backend, err := resolveBackend(cfg, log, opts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to initialize generation backend: %w", err),
			observability.Shutdown(provider, observability.DefaultShutdownTimeout))
	}

	a := &App{
		cfg:      cfg,
		logger:   log,
		backend:  backend,
		provider: provider,
		health:   newHealthChecker(backendHealthProbe(backend)),
	}

	srv := server.New(cfg, log, server.WithReadiness(a.health.Ready))
	a.server = srv

	a.api = api.New(cfg, backend, log,
		submission.WithTracerProvider(provider.TracerProvider()),
		submission.WithMeterProvider(provider.MeterProvider()),
	)
	a.api.RegisterRoutes(srv.ModuleGroup())

	if cfg.App.Debug {
		NewDebugHandlers(a, log).RegisterDebugEndpoints(srv.Echo())
	}

	log.Info().Str("backend", backend.Name()).Msg("Application initialized")
	return a, nil
}

func resolveBackend(cfg *config.Config, log logger.Logger, opts *Options) (generation.Backend, error) {
	if opts.Backend != nil {
		return opts.Backend, nil
	}
	if opts.BackendFactory != nil {
		return opts.BackendFactory(&cfg.Generation, log)
	}
	return generation.New(context.Background(), &cfg.Generation, log)
}

// Config returns the application configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Server returns the HTTP server.
func (a *App) Server() ServerRunner { return a.server }

// API returns the proposals API module.
func (a *App) API() *api.Module { return a.api }

// Shutdown stops the HTTP server, abandons open drafts, closes the
// generation backend and flushes telemetry. It is safe to call more than
// once; later calls return the first result.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		var errs []error

		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to shutdown server")
			errs = append(errs, fmt.Errorf("server: %w", err))
		}

		a.api.Close()

		if err := a.backend.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close generation backend")
			errs = append(errs, fmt.Errorf("generation backend: %w", err))
		}

		if err := a.provider.Shutdown(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to shutdown observability provider")
			errs = append(errs, fmt.Errorf("observability: %w", err))
		}

		a.logger.Info().Msg("Application shutdown complete")
		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}
