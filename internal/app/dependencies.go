package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/adapters/geolocation"
	"skydash.app/internal/adapters/httpclient"
	"skydash.app/internal/adapters/infrastructure"
	"skydash.app/internal/adapters/storage"
	"skydash.app/internal/config"
	"skydash.app/internal/core/auth"
	"skydash.app/internal/core/dashboard"
	"skydash.app/internal/core/fetch"
	"skydash.app/internal/core/location"
	"skydash.app/internal/core/theme"
	"skydash.app/internal/ports"
	"skydash.app/pkg/logger"
)

// DependencyContainer builds and owns every adapter and store
type DependencyContainer struct {
	config *config.Config

	Logger     ports.Logger
	Metrics    *infrastructure.PrometheusMetrics
	Storage    ports.Storage
	Geolocator ports.Geolocator
	Client     *httpclient.Client
	Backend    *backend.Backend
	Locations  *location.Store
	Theme      *theme.Store
	Auth       *auth.Store
	Hooks      *dashboard.Hooks
	Health     *infrastructure.SystemHealthChecker

	closers []io.Closer
}

// DependencyOverrides replaces adapters, mostly for tests
type DependencyOverrides struct {
	Storage    ports.Storage
	Geolocator ports.Geolocator
	HTTPClient httpclient.HTTPDoer
	LogWriter  io.Writer
}

func NewDependencyContainer(ctx context.Context, cfg *config.Config, overrides DependencyOverrides) (*DependencyContainer, error) {
	c := &DependencyContainer{config: cfg}

	if err := c.initializeInfrastructure(overrides); err != nil {
		return nil, fmt.Errorf("initialize infrastructure: %w", err)
	}
	if err := c.initializeStorage(overrides); err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	if err := c.initializeBackend(overrides); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize backend: %w", err)
	}
	if err := c.initializeStores(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize stores: %w", err)
	}

	c.Hooks = dashboard.New(dashboard.Params{
		Backend: c.Backend,
		Logger:  c.Logger,
		Observer: func(hook string, state fetch.State) {
			c.Metrics.RecordHookTransition(hook, state.String())
		},
	})

	c.Health = infrastructure.NewSystemHealthChecker(infrastructure.SystemHealthCheckerConfig{
		StorageChecker: infrastructure.NewStorageHealthChecker(c.Storage, cfg.Storage.Type.String()),
		BackendChecker: infrastructure.NewBackendHealthChecker(c.Client),
	})

	return c, nil
}

func (c *DependencyContainer) initializeInfrastructure(overrides DependencyOverrides) error {
	level := logger.ParseLevel(c.config.Logging.Level)

	writer := overrides.LogWriter
	if writer == nil {
		writer = os.Stderr
	}
	base := logger.NewWithWriter(writer, level)
	slog.SetDefault(base.Logger)

	var log ports.Logger = infrastructure.NewSlogLoggerAdapter(base.Logger)
	if c.config.Logging.FilePath != "" {
		fileLogger, err := infrastructure.NewFileLoggerAdapter(c.config.Logging.FilePath, level)
		if err != nil {
			log.Warn("Failed to create file logger, continuing without it", ports.F("error", err.Error()))
		} else {
			log = infrastructure.MultiLogger{log, fileLogger}
		}
	}

	c.Logger = log
	c.Metrics = infrastructure.NewPrometheusMetrics()
	return nil
}

func (c *DependencyContainer) initializeStorage(overrides DependencyOverrides) error {
	raw := overrides.Storage
	if raw == nil {
		created, err := storage.NewStorageFactory().CreateStorage(&c.config.Storage)
		if err != nil {
			return err
		}
		raw = created
	}
	if closer, ok := raw.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	c.Storage = storage.NewInstrumentedStorage(storage.InstrumentedStorageParams{
		Storage: raw,
		Backend: c.config.Storage.Type.String(),
		Metrics: c.Metrics,
		Logger:  c.Logger,
	})
	c.Logger.Debug("Storage ready", ports.F("type", c.config.Storage.Type.String()))
	return nil
}

func (c *DependencyContainer) initializeBackend(overrides DependencyOverrides) error {
	geolocator := overrides.Geolocator
	if geolocator == nil {
		created, err := geolocation.New(&c.config.Geolocation)
		if err != nil {
			return err
		}
		geolocator = created
	}
	c.Geolocator = geolocator

	client, err := httpclient.NewClient(httpclient.ClientParams{
		BaseURL:        c.config.API.BaseURL,
		Timeout:        time.Duration(c.config.API.TimeoutMS) * time.Millisecond,
		Logger:         c.Logger,
		Metrics:        c.Metrics,
		RateLimitRPS:   c.config.API.RateLimitRPS,
		RateLimitBurst: c.config.API.RateLimitBurst,
		HTTPClient:     overrides.HTTPClient,
	})
	if err != nil {
		return err
	}
	c.Client = client
	c.Backend = backend.New(client)
	return nil
}

func (c *DependencyContainer) initializeStores(ctx context.Context) error {
	var err error

	c.Locations, err = location.NewStore(ctx, location.StoreParams{
		Storage:    c.Storage,
		Geolocator: c.Geolocator,
		Logger:     c.Logger,
		Default: location.Location{
			Latitude:  c.config.DefaultLocation.Latitude,
			Longitude: c.config.DefaultLocation.Longitude,
			Name:      c.config.DefaultLocation.Name,
		},
	})
	if err != nil {
		return fmt.Errorf("location store: %w", err)
	}

	c.Theme, err = theme.NewStore(ctx, theme.StoreParams{Storage: c.Storage, Logger: c.Logger})
	if err != nil {
		return fmt.Errorf("theme store: %w", err)
	}

	c.Auth, err = auth.NewStore(ctx, auth.StoreParams{Storage: c.Storage, API: c.Backend.Auth, Logger: c.Logger})
	if err != nil {
		return fmt.Errorf("auth store: %w", err)
	}

	c.Client.SetCredentialProvider(c.Auth)
	if c.config.API.ClearOnUnauthorized {
		c.Client.SetUnauthorizedHandler(c.Auth.HandleUnauthorized)
	}
	return nil
}

// Close releases storage connections
func (c *DependencyContainer) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}
