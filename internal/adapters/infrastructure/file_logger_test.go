package infrastructure

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestFileLoggerAdapter_NewFileLoggerAdapter(t *testing.T) {
	tests := []struct {
		name        string
		logPath     func(dir string) string
		expectError bool
	}{
		{
			name:    "valid_path",
			logPath: func(dir string) string { return filepath.Join(dir, "skydash.log") },
		},
		{
			name:    "nested_path",
			logPath: func(dir string) string { return filepath.Join(dir, "nested", "deep", "skydash.log") },
		},
		{
			name:        "empty_path",
			logPath:     func(string) string { return "" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.logPath(t.TempDir())

			logger, err := NewFileLoggerAdapter(path, slog.LevelDebug)

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, logger)
				assert.True(t, errors.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
			assert.DirExists(t, filepath.Dir(path))
		})
	}
}

func TestFileLoggerAdapter_LogLevels(t *testing.T) {
	tests := []struct {
		level   string
		message string
		log     func(l *FileLoggerAdapter, msg string, fields ...ports.Field)
		fields  []ports.Field
	}{
		{"DEBUG", "Debug message", (*FileLoggerAdapter).Debug, []ports.Field{ports.F("key", "value")}},
		{"INFO", "Info message", (*FileLoggerAdapter).Info, []ports.Field{ports.F("path", "/apod")}},
		{"WARN", "Warning message", (*FileLoggerAdapter).Warn, []ports.Field{ports.F("status", 404)}},
		{"ERROR", "Error message", (*FileLoggerAdapter).Error, []ports.Field{ports.F("method", "GET")}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "test.log")
			logger, err := NewFileLoggerAdapter(logPath, slog.LevelDebug)
			require.NoError(t, err)

			tt.log(logger, tt.message, tt.fields...)

			lines := readLines(t, logPath)
			require.Len(t, lines, 1)

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, tt.message, entry["message"])

			ts, ok := entry["timestamp"].(string)
			require.True(t, ok)
			_, err = time.Parse(time.RFC3339, ts)
			assert.NoError(t, err)

			for _, field := range tt.fields {
				if n, ok := field.Value.(int); ok {
					assert.Equal(t, float64(n), entry[field.Key])
				} else {
					assert.Equal(t, field.Value, entry[field.Key])
				}
			}
		})
	}
}

func TestFileLoggerAdapter_MinLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")
	logger, err := NewFileLoggerAdapter(logPath, slog.LevelWarn)
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("kept too")

	lines := readLines(t, logPath)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"kept"`)
	assert.Contains(t, lines[1], `"kept too"`)
}

func TestFileLoggerAdapter_ErrorFieldsAreStrings(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "errors.log")
	logger, err := NewFileLoggerAdapter(logPath, slog.LevelDebug)
	require.NoError(t, err)

	logger.Error("request failed", ports.F("error", errors.NewNetworkError(fmt.Errorf("connection refused"))))

	lines := readLines(t, logPath)
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Contains(t, entry["error"], "connection refused")
}

func TestFileLoggerAdapter_ConcurrentLogging(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	logger, err := NewFileLoggerAdapter(logPath, slog.LevelInfo)
	require.NoError(t, err)

	const goroutines = 10
	const perGoroutine = 5

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				logger.Info(fmt.Sprintf("Message from goroutine %d", id),
					ports.F("goroutine_id", id),
					ports.F("message_id", j))
			}
		}(i)
	}
	wg.Wait()

	lines := readLines(t, logPath)
	assert.Len(t, lines, goroutines*perGoroutine)
	for i, line := range lines {
		var entry map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry), "line %d should be valid JSON: %s", i, line)
		assert.Contains(t, entry, "goroutine_id")
	}
}

func TestFileLoggerAdapter_InvalidJSONHandling(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "invalid.log")
	logger, err := NewFileLoggerAdapter(logPath, slog.LevelInfo)
	require.NoError(t, err)

	logger.Info("Test message", ports.F("channel", make(chan int)))

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "failed to marshal log entry")
}
