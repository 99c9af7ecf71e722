package storage

import (
	"fmt"

	"skydash.app/internal/config"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

type StorageFactory struct{}

func NewStorageFactory() *StorageFactory {
	return &StorageFactory{}
}

// CreateStorage builds the backend selected by cfg.Type. Redis keys use
// cfg.KeyPrefix; the other backends are private to this installation.
func (f *StorageFactory) CreateStorage(cfg *config.StorageConfig) (ports.Storage, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("storage config cannot be nil", nil)
	}

	switch cfg.Type {
	case config.StorageTypeMemory:
		return NewMemoryStorage(), nil
	case config.StorageTypeFile:
		s, err := NewFileStorage(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageTypeRedis:
		s, err := NewRedisStorage(&cfg.Redis, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageTypeDatabase:
		db, err := OpenDatabase(&cfg.Database)
		if err != nil {
			return nil, err
		}
		s, err := NewDatabaseStorage(db)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.NewConfigurationError(
			fmt.Sprintf("unsupported storage type: %s", cfg.Type.String()), nil)
	}
}
