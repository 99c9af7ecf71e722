package infrastructure

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/ports"
)

type recordingLogger struct {
	entries []string
}

func (r *recordingLogger) Debug(msg string, fields ...ports.Field) {
	r.entries = append(r.entries, "DEBUG "+msg)
}
func (r *recordingLogger) Info(msg string, fields ...ports.Field) {
	r.entries = append(r.entries, "INFO "+msg)
}
func (r *recordingLogger) Warn(msg string, fields ...ports.Field) {
	r.entries = append(r.entries, "WARN "+msg)
}
func (r *recordingLogger) Error(msg string, fields ...ports.Field) {
	r.entries = append(r.entries, "ERROR "+msg)
}

func TestSlogLoggerAdapter_Fields(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogLoggerAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Info("API Request: GET /apod", ports.F("method", "GET"), ports.F("status", 200))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "API Request: GET /apod", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
}

func TestSlogLoggerAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogLoggerAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	adapter.Debug("debug")
	adapter.Info("info")
	adapter.Warn("warn")
	adapter.Error("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[1], `"level":"ERROR"`)
}

func TestSlogLoggerAdapter_NilFallsBackToDefault(t *testing.T) {
	var adapter *SlogLoggerAdapter
	assert.NotPanics(t, func() { adapter.Info("still logs") })
	assert.NotPanics(t, func() { NewSlogLoggerAdapter(nil).Warn("still logs") })
}

func TestMultiLogger(t *testing.T) {
	first, second := &recordingLogger{}, &recordingLogger{}
	logger := MultiLogger{first, second}

	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")

	expected := []string{"DEBUG a", "INFO b", "WARN c", "ERROR d"}
	assert.Equal(t, expected, first.entries)
	assert.Equal(t, expected, second.entries)
}
