package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

func TestFileStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "storage.json")

	first, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, ports.KeyThemeMode, "dark"))
	require.NoError(t, first.Set(ctx, ports.KeyAccessToken, "abc"))
	require.NoError(t, first.Delete(ctx, ports.KeyAccessToken))

	second, err := NewFileStorage(path)
	require.NoError(t, err)

	value, err := second.Get(ctx, ports.KeyThemeMode)
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	_, err = second.Get(ctx, ports.KeyAccessToken)
	assert.True(t, errors.IsNotFoundError(err))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestNewFileStorage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		content   *string
		errorType errors.ErrorType
	}{
		{name: "Missing"},
		{name: "EmptyFile", content: strPtr("")},
		{name: "NullObject", content: strPtr("null")},
		{name: "Valid", content: strPtr(`{"themeMode":"dark"}`)},
		{name: "Corrupted", content: strPtr(`{"themeMode":`), errorType: errors.ErrorTypeStorage},
		{name: "WrongShape", content: strPtr(`{"themeMode":1}`), errorType: errors.ErrorTypeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.content != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.content), 0o600))
			}

			s, err := NewFileStorage(path)
			if tt.errorType != errors.ErrorTypeUnknown {
				require.Error(t, err)
				assert.Nil(t, s)
				var appErr *errors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.errorType, appErr.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, s.Path())
		})
	}

	_, err := NewFileStorage("")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestFileStorage_WriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	parent := filepath.Join(t.TempDir(), "state")

	s, err := NewFileStorage(filepath.Join(parent, "storage.json"))
	require.NoError(t, err)

	// the parent "directory" becomes a regular file, so every flush fails
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o600))

	err = s.Set(ctx, ports.KeyThemeMode, "dark")
	require.Error(t, err)
	assert.True(t, errors.IsStorageError(err))

	exists, err := s.Exists(ctx, ports.KeyThemeMode)
	require.NoError(t, err)
	assert.False(t, exists)
}

func strPtr(s string) *string {
	return &s
}
