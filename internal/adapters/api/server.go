// Package api exposes the dashboard hooks and state stores over HTTP
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"skydash.app/internal/core/auth"
	"skydash.app/internal/core/dashboard"
	"skydash.app/internal/core/location"
	"skydash.app/internal/core/theme"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port int
}

// Store interfaces the HTTP adapter depends on
type LocationStore interface {
	Current() location.Location
	Saved() []location.Location
	Update(ctx context.Context, loc location.Location) error
	AddSaved(ctx context.Context, loc location.Location) error
	RemoveSaved(ctx context.Context, loc location.Location) error
	CurrentPosition(ctx context.Context) (location.Location, error)
}

type ThemeStore interface {
	Mode() theme.Mode
	Palette() theme.Palette
	Toggle(ctx context.Context) (theme.Mode, error)
	Set(ctx context.Context, mode theme.Mode) error
}

type SessionStore interface {
	Session() auth.Session
	Loading() bool
}

// MetricsProvider serves the Prometheus registry and the JSON stats view
type MetricsProvider interface {
	Handler() http.Handler
	GetStats() map[string]interface{}
}

// HTTPServerAdapter implements the dashboard gateway using Gin
type HTTPServerAdapter struct {
	router    *gin.Engine
	config    ServerConfig
	hooks     *dashboard.Hooks
	locations LocationStore
	theme     ThemeStore
	session   SessionStore
	health    ports.SystemHealthChecker
	metrics   MetricsProvider
	logger    ports.Logger
	now       func() time.Time
}

// ServerOptions represents options for creating the HTTP server
type ServerOptions struct {
	Config    ServerConfig
	Hooks     *dashboard.Hooks
	Locations LocationStore
	Theme     ThemeStore
	Session   SessionStore
	Health    ports.SystemHealthChecker
	Metrics   MetricsProvider
	Logger    ports.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// NewHTTPServerAdapter creates a new HTTP server adapter
func NewHTTPServerAdapter(opts ServerOptions) (*HTTPServerAdapter, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.NewConfigurationError("invalid server options", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())

	server := &HTTPServerAdapter{
		router:    router,
		config:    opts.Config,
		hooks:     opts.Hooks,
		locations: opts.Locations,
		theme:     opts.Theme,
		session:   opts.Session,
		health:    opts.Health,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       now,
	}

	router.Use(server.requestLogger())
	server.setupRoutes()
	return server, nil
}

// Validate checks if all required dependencies are provided
func (opts *ServerOptions) Validate() error {
	if opts.Hooks == nil {
		return errors.NewValidationError("dashboard hooks are required")
	}
	if opts.Locations == nil {
		return errors.NewValidationError("location store is required")
	}
	if opts.Theme == nil {
		return errors.NewValidationError("theme store is required")
	}
	if opts.Session == nil {
		return errors.NewValidationError("session store is required")
	}
	if opts.Logger == nil {
		return errors.NewValidationError("logger is required")
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *HTTPServerAdapter) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/weather", s.getWeather)
		api.GET("/asteroids", s.getAsteroids)
		api.GET("/geomagnetic/storms", s.getStorms)
		api.GET("/geomagnetic/forecast", s.getForecast)
		api.GET("/events", s.getEvents)
		api.GET("/airquality", s.getAirQuality)
		api.GET("/apod", s.getAPOD)

		api.GET("/location", s.getLocation)
		api.PUT("/location", s.updateLocation)
		api.POST("/location/current", s.locateCurrent)
		api.POST("/locations", s.addLocation)
		api.DELETE("/locations", s.removeLocation)

		api.GET("/theme", s.getTheme)
		api.POST("/theme", s.toggleTheme)
		api.PUT("/theme", s.setTheme)

		api.GET("/session", s.getSession)
		api.GET("/stats", s.getStats)
	}

	s.router.GET("/health", s.getHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// GetRouter returns the router for testing purposes
func (s *HTTPServerAdapter) GetRouter() *gin.Engine {
	return s.router
}

func (s *HTTPServerAdapter) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Handled request",
			ports.F("method", c.Request.Method),
			ports.F("path", c.FullPath()),
			ports.F("status", c.Writer.Status()),
			ports.F("duration_ms", time.Since(start).Milliseconds()))
	}
}
