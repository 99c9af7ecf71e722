package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"skydash.app/pkg/errors"
)

// FileStorage persists all keys as one JSON object on disk. Every write
// replaces the file through a temporary file and a rename.
type FileStorage struct {
	path  string
	data  map[string]string
	mutex sync.RWMutex
}

// NewFileStorage loads path if it exists. A missing file is an empty store;
// a file that is not a JSON object of strings is a storage error.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.NewConfigurationError("storage file path cannot be empty", nil)
	}

	s := &FileStorage{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.NewStorageError("failed to read storage file", err)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, errors.NewStorageError("storage file is corrupted", err)
		}
		if s.data == nil {
			s.data = make(map[string]string)
		}
	}
	return s, nil
}

func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Get(ctx context.Context, key string) (string, error) {
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

func (s *FileStorage) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, existed := s.data[key]
	s.data[key] = value
	if err := s.flush(); err != nil {
		if existed {
			s.data[key] = previous
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *FileStorage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous, existed := s.data[key]
	if !existed {
		return nil
	}
	delete(s.data, key)
	if err := s.flush(); err != nil {
		s.data[key] = previous
		return err
	}
	return nil
}

func (s *FileStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	s.mutex.RLock()
	_, exists := s.data[key]
	s.mutex.RUnlock()

	return exists, nil
}

func (s *FileStorage) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.data
	s.data = make(map[string]string)
	if err := s.flush(); err != nil {
		s.data = previous
		return err
	}
	return nil
}

// flush must be called with the write lock held
func (s *FileStorage) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to encode storage file", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError("failed to create storage directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.NewStorageError("failed to write storage file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.NewStorageError("failed to write storage file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError("failed to write storage file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError("failed to replace storage file", err)
	}
	return nil
}
