package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

type staticCredentials string

func (s staticCredentials) AccessToken(ctx context.Context) string { return string(s) }

type logEntry struct {
	level  string
	msg    string
	fields []ports.Field
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (c *captureLogger) add(level, msg string, fields []ports.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (c *captureLogger) Debug(msg string, fields ...ports.Field) { c.add("DEBUG", msg, fields) }
func (c *captureLogger) Info(msg string, fields ...ports.Field)  { c.add("INFO", msg, fields) }
func (c *captureLogger) Warn(msg string, fields ...ports.Field)  { c.add("WARN", msg, fields) }
func (c *captureLogger) Error(msg string, fields ...ports.Field) { c.add("ERROR", msg, fields) }

func (c *captureLogger) messages(level string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, e := range c.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

type recordedRequest struct {
	method string
	path   string
	status int
}

type captureMetrics struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (m *captureMetrics) RecordRequest(method, path string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{method: method, path: path, status: status})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientParams)) (*Client, *captureLogger, *captureMetrics) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := &captureLogger{}
	metrics := &captureMetrics{}
	params := ClientParams{
		BaseURL: server.URL + "/api",
		Timeout: time.Second,
		Logger:  logger,
		Metrics: metrics,
	}
	if mutate != nil {
		mutate(&params)
	}

	client, err := NewClient(params)
	require.NoError(t, err)
	return client, logger, metrics
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "backend.local", "ftp://backend.local", "http://"} {
		_, err := NewClient(ClientParams{BaseURL: raw})
		assert.True(t, errors.IsConfigurationError(err), "base URL %q", raw)
	}
}

func TestClient_Get_Success(t *testing.T) {
	var gotReq *http.Request
	client, logger, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"title":"Pillars"}}`))
	}, nil)

	body, err := client.Get(context.Background(), "/apod", url.Values{"thumbs": {"true"}})
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"data":{"title":"Pillars"}}`, string(body))
	assert.Equal(t, "/api/apod", gotReq.URL.Path)
	assert.Equal(t, "true", gotReq.URL.Query().Get("thumbs"))
	assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))
	assert.Empty(t, gotReq.Header.Get("Authorization"))
	_, err = uuid.Parse(gotReq.Header.Get(HeaderRequestID))
	assert.NoError(t, err)

	assert.Equal(t, []string{"API Request: GET /apod"}, logger.messages("INFO"))
	assert.Empty(t, logger.messages("ERROR"))
	assert.Equal(t, []recordedRequest{{method: "GET", path: "/apod", status: 200}}, metrics.requests)
}

func TestClient_BearerToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{"WithToken", "abc.def.ghi", "Bearer abc.def.ghi"},
		{"EmptyToken", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var auth string
			client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				_, _ = w.Write([]byte(`{}`))
			}, func(p *ClientParams) {
				p.Credentials = staticCredentials(tt.token)
			})

			_, err := client.Get(context.Background(), "/auth/profile", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, auth)
		})
	}
}

func TestClient_SetCredentialProvider(t *testing.T) {
	var auth string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	client.SetCredentialProvider(staticCredentials("late-token"))
	_, err := client.Get(context.Background(), "/auth/profile", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer late-token", auth)
}

func TestClient_PostSendsJSON(t *testing.T) {
	var body map[string]string
	var contentType string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}, nil)

	_, err := client.Post(context.Background(), "/auth/login", map[string]string{"email": "a@b.co", "password": "pw"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{"email": "a@b.co", "password": "pw"}, body)
}

func TestClient_HTTPErrors(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
		unauthorized    bool
	}{
		{"BackendMessage", http.StatusBadRequest, `{"success":false,"message":"Invalid date range"}`, "Invalid date range", false},
		{"ErrorString", http.StatusNotFound, `{"error":"No APOD for date"}`, "No APOD for date", false},
		{"NestedError", http.StatusBadGateway, `{"error":{"message":"NASA upstream down"}}`, "NASA upstream down", false},
		{"NoBody", http.StatusInternalServerError, ``, "Request failed with status 500", false},
		{"HTMLBody", http.StatusServiceUnavailable, `<html>down</html>`, "Request failed with status 503", false},
		{"Unauthorized", http.StatusUnauthorized, `{"message":"Token expired"}`, "Token expired", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, logger, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			body, err := client.Get(context.Background(), "/weather/data", nil)
			assert.Nil(t, body)
			require.Error(t, err)

			assert.True(t, errors.IsHTTPError(err))
			assert.Equal(t, tt.unauthorized, errors.IsUnauthorizedError(err))
			assert.Equal(t, tt.status, errors.StatusCode(err))
			assert.Equal(t, tt.expectedMessage, errors.UserMessage(err, ""))
			assert.Equal(t, []string{"API Error"}, logger.messages("ERROR"))
			require.Len(t, metrics.requests, 1)
			assert.Equal(t, tt.status, metrics.requests[0].status)
		})
	}
}

func TestClient_UnauthorizedHandler(t *testing.T) {
	calls := 0
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/profile" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}, func(p *ClientParams) {
		p.OnUnauthorized = func(ctx context.Context) { calls++ }
	})

	_, err := client.Get(context.Background(), "/auth/profile", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	_, err = client.Get(context.Background(), "/weather/parameters", nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "only 401 triggers the handler")
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	metrics := &captureMetrics{}
	client, err := NewClient(ClientParams{BaseURL: baseURL, Timeout: time.Second, Metrics: metrics})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/apod", nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
	assert.Equal(t, errors.NetworkMessage, errors.UserMessage(err, "Failed to fetch APOD"))
	require.Len(t, metrics.requests, 1)
	assert.Equal(t, 0, metrics.requests[0].status)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(p *ClientParams) {
		p.Timeout = 50 * time.Millisecond
	})
	defer close(release)

	_, err := client.Get(context.Background(), "/geomagnetic/storms", nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
}

func TestClient_ContextCancelled(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/apod", nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
}

func TestClient_RateLimit(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, func(p *ClientParams) {
		p.RateLimitRPS = 0.001
		p.RateLimitBurst = 1
	})

	_, err := client.Get(context.Background(), "/apod", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, "/apod", nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetworkError(err))
}

func TestClient_RouteLabel(t *testing.T) {
	client, logger, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	_, err := client.Do(context.Background(), Request{Path: "/apod/date/2024-06-01", Route: "/apod/date/:date"})
	require.NoError(t, err)

	assert.Equal(t, []string{"API Request: GET /apod/date/2024-06-01"}, logger.messages("INFO"))
	assert.Equal(t, "/apod/date/:date", metrics.requests[0].path)
}

func TestClient_Ping(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, nil)
	assert.NoError(t, client.Ping(context.Background()))
	assert.Contains(t, client.BaseURL(), "/api")
}
