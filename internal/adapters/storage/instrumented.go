package storage

import (
	"context"
	"time"

	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

// InstrumentedStorage decorates a storage backend with metrics and logging.
// A missing key on Get is a successful operation.
type InstrumentedStorage struct {
	storage ports.Storage
	backend string
	metrics ports.StorageMetrics
	logger  ports.Logger
}

type InstrumentedStorageParams struct {
	Storage ports.Storage
	Backend string
	Metrics ports.StorageMetrics
	Logger  ports.Logger
}

func NewInstrumentedStorage(params InstrumentedStorageParams) *InstrumentedStorage {
	return &InstrumentedStorage{
		storage: params.Storage,
		backend: params.Backend,
		metrics: params.Metrics,
		logger:  params.Logger,
	}
}

// Unwrap returns the decorated backend
func (s *InstrumentedStorage) Unwrap() ports.Storage {
	return s.storage
}

func (s *InstrumentedStorage) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	value, err := s.storage.Get(ctx, key)
	s.observe("get", key, start, err)
	return value, err
}

func (s *InstrumentedStorage) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.storage.Set(ctx, key, value)
	s.observe("set", key, start, err)
	return err
}

func (s *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.storage.Delete(ctx, key)
	s.observe("delete", key, start, err)
	return err
}

func (s *InstrumentedStorage) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	exists, err := s.storage.Exists(ctx, key)
	s.observe("exists", key, start, err)
	return exists, err
}

func (s *InstrumentedStorage) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.storage.Clear(ctx)
	s.observe("clear", "", start, err)
	return err
}

func (s *InstrumentedStorage) observe(operation, key string, start time.Time, err error) {
	duration := time.Since(start)
	success := err == nil || errors.IsNotFoundError(err)

	if s.metrics != nil {
		s.metrics.RecordOperation(s.backend, operation, success, duration)
	}

	if s.logger == nil {
		return
	}
	if !success {
		s.logger.Error("Storage operation failed",
			ports.F("backend", s.backend),
			ports.F("operation", operation),
			ports.F("key", key),
			ports.F("duration_ms", duration.Milliseconds()),
			ports.F("error", err.Error()))
		return
	}
	s.logger.Debug("Storage operation completed",
		ports.F("backend", s.backend),
		ports.F("operation", operation),
		ports.F("key", key),
		ports.F("duration_ms", duration.Milliseconds()))
}
