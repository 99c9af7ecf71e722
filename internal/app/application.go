package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/adapters/api"
	"skydash.app/internal/config"
	"skydash.app/internal/core/auth"
	"skydash.app/internal/ports"
)

type Application struct {
	config *config.Config
	deps   *DependencyContainer

	httpServer *http.Server
	router     *gin.Engine
}

// NewApplication loads configuration from the environment and wires every
// component
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return NewApplicationWithConfig(ctx, cfg, DependencyOverrides{})
}

// NewApplicationWithConfig wires the application from cfg, replacing the
// adapters given in overrides
func NewApplicationWithConfig(ctx context.Context, cfg *config.Config, overrides DependencyOverrides) (*Application, error) {
	slog.Info("Initializing application dependencies...")

	deps, err := NewDependencyContainer(ctx, cfg, overrides)
	if err != nil {
		return nil, fmt.Errorf("create dependency container: %w", err)
	}

	app := &Application{config: cfg, deps: deps}
	if err := app.initializeAdapters(); err != nil {
		deps.Close()
		return nil, fmt.Errorf("initialize adapters: %w", err)
	}

	slog.Info("Application initialized successfully")
	return app, nil
}

func (a *Application) initializeAdapters() error {
	httpAdapter, err := api.NewHTTPServerAdapter(api.ServerOptions{
		Config: api.ServerConfig{
			Port: a.config.Server.Port,
		},
		Hooks:     a.deps.Hooks,
		Locations: a.deps.Locations,
		Theme:     a.deps.Theme,
		Session:   a.deps.Auth,
		Health:    a.deps.Health,
		Metrics:   a.deps.Metrics,
		Logger:    a.deps.Logger,
	})
	if err != nil {
		return fmt.Errorf("create HTTP adapter: %w", err)
	}

	a.router = httpAdapter.GetRouter()
	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// Bootstrap restores the stored session before anything is served
func (a *Application) Bootstrap(ctx context.Context) auth.BootstrapResult {
	result := a.deps.Auth.Bootstrap(ctx)
	a.deps.Logger.Info("Session bootstrap finished", ports.F("outcome", string(result.Outcome)))
	return result
}

// Start runs the dashboard gateway until Shutdown is called
func (a *Application) Start(ctx context.Context) error {
	a.Bootstrap(ctx)

	slog.Info("Starting HTTP server", "port", a.config.Server.Port, "backend", a.config.API.BaseURL)
	if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

func (a *Application) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application...")

	// abort backend calls still in flight
	a.deps.Hooks.Cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down HTTP server", "error", err)
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
	}

	if err := a.Close(); err != nil {
		slog.Warn("Error closing storage", "error", err)
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Close releases storage without touching the HTTP server; CLI commands
// that never serve call this directly
func (a *Application) Close() error {
	return a.deps.Close()
}

func (a *Application) Config() *config.Config {
	return a.config
}

// Dependencies exposes the wired stores for CLI commands
func (a *Application) Dependencies() *DependencyContainer {
	return a.deps
}

// GetRouter returns the Gin router for testing
func (a *Application) GetRouter() *gin.Engine {
	return a.router
}
