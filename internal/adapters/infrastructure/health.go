package infrastructure

import (
	"context"
	"time"

	"skydash.app/internal/ports"
)

const healthProbeKey = "__health__"

// StorageHealthChecker verifies the persistent storage answers a lookup
type StorageHealthChecker struct {
	storage     ports.Storage
	storageType string
}

func NewStorageHealthChecker(storage ports.Storage, storageType string) *StorageHealthChecker {
	return &StorageHealthChecker{storage: storage, storageType: storageType}
}

// Check verifies storage connectivity
func (s *StorageHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "storage",
		Details:   map[string]interface{}{"type": s.storageType},
	}

	if s.storage == nil {
		status.Status = "unhealthy"
		status.Error = "storage is not configured"
		return status
	}

	if _, err := s.storage.Exists(ctx, healthProbeKey); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}

	status.Status = "healthy"
	return status
}

// BackendPinger is satisfied by the backend HTTP client
type BackendPinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

// BackendHealthChecker verifies the data backend is reachable
type BackendHealthChecker struct {
	pinger BackendPinger
}

func NewBackendHealthChecker(pinger BackendPinger) *BackendHealthChecker {
	return &BackendHealthChecker{pinger: pinger}
}

// Check pings the backend; any HTTP answer counts as reachable
func (b *BackendHealthChecker) Check(ctx context.Context) ports.HealthStatus {
	status := ports.HealthStatus{
		Component: "backend",
		Details:   make(map[string]interface{}),
	}

	if b.pinger == nil {
		status.Status = "unhealthy"
		status.Error = "backend client is not available"
		return status
	}
	status.Details["baseURL"] = b.pinger.BaseURL()

	start := time.Now()
	err := b.pinger.Ping(ctx)
	status.Details["latency_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		return status
	}

	status.Status = "healthy"
	return status
}

// SystemHealthChecker aggregates all health checks
type SystemHealthChecker struct {
	checkers map[string]ports.HealthChecker
}

// SystemHealthCheckerConfig holds the configuration for creating a system health checker
type SystemHealthCheckerConfig struct {
	StorageChecker ports.HealthChecker
	BackendChecker ports.HealthChecker
}

func NewSystemHealthChecker(config SystemHealthCheckerConfig) *SystemHealthChecker {
	checkers := make(map[string]ports.HealthChecker)
	if config.StorageChecker != nil {
		checkers["storage"] = config.StorageChecker
	}
	if config.BackendChecker != nil {
		checkers["backend"] = config.BackendChecker
	}
	return &SystemHealthChecker{checkers: checkers}
}

// CheckAll performs health checks on all components
func (s *SystemHealthChecker) CheckAll(ctx context.Context) map[string]ports.HealthStatus {
	results := make(map[string]ports.HealthStatus, len(s.checkers))
	for name, checker := range s.checkers {
		results[name] = checker.Check(ctx)
	}
	return results
}
