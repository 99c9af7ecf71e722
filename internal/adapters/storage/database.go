package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"skydash.app/internal/config"
	"skydash.app/pkg/errors"
)

// EntryModel is one stored key/value pair
type EntryModel struct {
	Key       string `gorm:"column:storage_key;primaryKey;size:255"`
	Value     string `gorm:"column:storage_value;type:text;not null"`
	UpdatedAt time.Time
}

func (EntryModel) TableName() string {
	return "storage_entries"
}

// DatabaseStorage implements ports.Storage on a single gorm table
type DatabaseStorage struct {
	db *gorm.DB
}

// OpenDatabase opens a gorm connection for the configured driver. For
// file-backed sqlite the parent directory is created first.
func OpenDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("database config cannot be nil", nil)
	}

	var dialector gorm.Dialector
	dsn := cfg.GetDSN()
	switch cfg.Driver {
	case "sqlite":
		if cfg.DSN == "" && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, errors.NewStorageError("failed to create database directory", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.NewConfigurationError(fmt.Sprintf("unsupported database driver: %s", cfg.Driver), nil)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.NewStorageError("failed to connect to database", err)
	}
	return db, nil
}

// NewDatabaseStorage migrates the entries table and returns the store
func NewDatabaseStorage(db *gorm.DB) (*DatabaseStorage, error) {
	if db == nil {
		return nil, errors.NewConfigurationError("database connection cannot be nil", nil)
	}
	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, errors.NewStorageError("failed to migrate storage table", err)
	}
	return &DatabaseStorage{db: db}, nil
}

func (s *DatabaseStorage) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	var model EntryModel
	result := s.db.WithContext(ctx).Where("storage_key = ?", key).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return "", notFound(key)
		}
		return "", errors.NewStorageError("failed to read storage entry", result.Error)
	}
	return model.Value, nil
}

// Set inserts or replaces the entry
func (s *DatabaseStorage) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	model := &EntryModel{Key: key, Value: value}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_value", "updated_at"}),
	}).Create(model)
	if result.Error != nil {
		return errors.NewStorageError("failed to save storage entry", result.Error)
	}
	return nil
}

func (s *DatabaseStorage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&EntryModel{})
	if result.Error != nil {
		return errors.NewStorageError("failed to delete storage entry", result.Error)
	}
	return nil
}

func (s *DatabaseStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	var count int64
	result := s.db.WithContext(ctx).Model(&EntryModel{}).Where("storage_key = ?", key).Count(&count)
	if result.Error != nil {
		return false, errors.NewStorageError("failed to check storage entry", result.Error)
	}
	return count > 0, nil
}

func (s *DatabaseStorage) Clear(ctx context.Context) error {
	result := s.db.WithContext(ctx).Where("1 = 1").Delete(&EntryModel{})
	if result.Error != nil {
		return errors.NewStorageError("failed to clear storage", result.Error)
	}
	return nil
}

func (s *DatabaseStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.NewStorageError("failed to get database handle", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.NewStorageError("database ping failed", err)
	}
	return nil
}

func (s *DatabaseStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.NewStorageError("failed to get database handle", err)
	}
	if err := sqlDB.Close(); err != nil {
		return errors.NewStorageError("failed to close database connection", err)
	}
	return nil
}
