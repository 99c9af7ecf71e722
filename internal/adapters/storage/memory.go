package storage

import (
	"context"
	"sync"

	"skydash.app/pkg/errors"
)

// MemoryStorage keeps values for the lifetime of the process only
type MemoryStorage struct {
	data  map[string]string
	mutex sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data: make(map[string]string),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	s.mutex.RLock()
	value, exists := s.data[key]
	s.mutex.RUnlock()

	if !exists {
		return "", notFound(key)
	}
	return value, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = value
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.data, key)
	return nil
}

func (s *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	s.mutex.RLock()
	_, exists := s.data[key]
	s.mutex.RUnlock()

	return exists, nil
}

func (s *MemoryStorage) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data = make(map[string]string)
	return nil
}

func checkKey(key string) error {
	if key == "" {
		return errors.NewValidationError("storage key cannot be empty")
	}
	return nil
}

func notFound(key string) error {
	return errors.NewNotFoundError("no value stored for " + key)
}
