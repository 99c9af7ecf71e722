package infrastructure

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

// FileLoggerAdapter appends JSON lines to a log file
type FileLoggerAdapter struct {
	filePath string
	minLevel slog.Level
	mutex    sync.Mutex
}

// NewFileLoggerAdapter creates a file logger that drops entries below minLevel
func NewFileLoggerAdapter(logPath string, minLevel slog.Level) (*FileLoggerAdapter, error) {
	if logPath == "" {
		return nil, errors.NewConfigurationError("log file path cannot be empty", nil)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, errors.NewConfigurationError("failed to create log directory", err)
	}

	return &FileLoggerAdapter{
		filePath: logPath,
		minLevel: minLevel,
	}, nil
}

// Debug logs a debug message to file
func (f *FileLoggerAdapter) Debug(msg string, fields ...ports.Field) {
	f.writeLogEntry(slog.LevelDebug, msg, fields...)
}

// Info logs an info message to file
func (f *FileLoggerAdapter) Info(msg string, fields ...ports.Field) {
	f.writeLogEntry(slog.LevelInfo, msg, fields...)
}

// Warn logs a warning message to file
func (f *FileLoggerAdapter) Warn(msg string, fields ...ports.Field) {
	f.writeLogEntry(slog.LevelWarn, msg, fields...)
}

// Error logs an error message to file
func (f *FileLoggerAdapter) Error(msg string, fields ...ports.Field) {
	f.writeLogEntry(slog.LevelError, msg, fields...)
}

// writeLogEntry encodes one JSON line, skipping levels below minLevel
func (f *FileLoggerAdapter) writeLogEntry(level slog.Level, msg string, fields ...ports.Field) {
	if level < f.minLevel {
		return
	}

	entry := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"level":     level.String(),
		"message":   msg,
	}
	for _, field := range fields {
		if err, ok := field.Value.(error); ok {
			entry[field.Key] = err.Error()
			continue
		}
		entry[field.Key] = field.Value
	}

	line, err := json.Marshal(entry)
	if err != nil {
		f.writeRawLog(fmt.Sprintf("ERROR: failed to marshal log entry: %v", err))
		return
	}

	f.writeRawLog(string(line))
}

// writeRawLog appends a pre-encoded line to the file
func (f *FileLoggerAdapter) writeRawLog(data string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	file, err := os.OpenFile(f.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", closeErr)
		}
	}()

	if _, err := file.WriteString(data + "\n"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
	}
}
