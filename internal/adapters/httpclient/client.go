package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

const (
	// DefaultTimeout applies when ClientParams.Timeout is zero
	DefaultTimeout = 10 * time.Second

	HeaderRequestID = "X-Request-ID"

	maxErrorBodyBytes = 64 << 10
)

// HTTPDoer is the subset of *http.Client the wrapper needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientParams holds parameters for creating the backend client
type ClientParams struct {
	BaseURL        string
	Timeout        time.Duration
	Credentials    ports.CredentialProvider
	OnUnauthorized ports.UnauthorizedHandler
	Logger         ports.Logger
	Metrics        ports.BackendMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	HTTPClient     HTTPDoer
}

// Client is the single gateway to the data backend. It attaches the bearer
// token, logs every request, and turns failures into AppErrors.
type Client struct {
	baseURL *url.URL
	doer    HTTPDoer
	logger  ports.Logger
	metrics ports.BackendMetrics
	limiter *rate.Limiter

	mu             sync.RWMutex
	credentials    ports.CredentialProvider
	onUnauthorized ports.UnauthorizedHandler
}

// Request describes one backend call. Route is the metrics label and
// defaults to Path, which keeps ids out of label values when set.
type Request struct {
	Method string
	Path   string
	Route  string
	Query  url.Values
	Body   interface{}
}

func NewClient(params ClientParams) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, errors.NewConfigurationError(fmt.Sprintf("invalid backend base URL %q", params.BaseURL), err)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	doer := params.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if params.RateLimitRPS > 0 {
		burst := params.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(params.RateLimitRPS), burst)
	}

	return &Client{
		baseURL:        base,
		doer:           doer,
		logger:         params.Logger,
		metrics:        params.Metrics,
		limiter:        limiter,
		credentials:    params.Credentials,
		onUnauthorized: params.OnUnauthorized,
	}, nil
}

// SetCredentialProvider swaps the token source. The auth store is built on
// top of the client, so it registers itself after construction.
func (c *Client) SetCredentialProvider(p ports.CredentialProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials = p
}

func (c *Client) SetUnauthorizedHandler(h ports.UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Do performs the request and returns the raw response body of a 2xx answer
func (c *Client) Do(ctx context.Context, r Request) (json.RawMessage, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	route := r.Route
	if route == "" {
		route = r.Path
	}

	c.logRequest(fmt.Sprintf("API Request: %s %s", method, r.Path))

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			appErr := errors.NewNetworkError(err)
			c.logFailure(method, r.Path, 0, appErr)
			return nil, appErr
		}
	}

	req, err := c.newRequest(ctx, method, r)
	if err != nil {
		c.logFailure(method, r.Path, 0, err)
		return nil, err
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.recordMetrics(method, route, 0, start)
		appErr := errors.NewNetworkError(err)
		c.logFailure(method, r.Path, 0, appErr)
		return nil, appErr
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && c.logger != nil {
			c.logger.Warn("Failed to close backend response body", ports.F("error", closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	c.recordMetrics(method, route, resp.StatusCode, start)
	if err != nil {
		appErr := errors.NewNetworkError(err)
		c.logFailure(method, r.Path, resp.StatusCode, appErr)
		return nil, appErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := errors.NewHTTPError(resp.StatusCode, backendMessage(body))
		c.logFailure(method, r.Path, resp.StatusCode, appErr)
		if resp.StatusCode == http.StatusUnauthorized {
			c.notifyUnauthorized(ctx)
		}
		return nil, appErr
	}

	return json.RawMessage(body), nil
}

// Ping checks that the backend answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return errors.NewNetworkError(err)
	}
	resp, err := c.doer.Do(req)
	if err != nil {
		return errors.NewNetworkError(err)
	}
	return resp.Body.Close()
}

func (c *Client) newRequest(ctx context.Context, method string, r Request) (*http.Request, error) {
	target := c.baseURL.String() + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("cannot encode request body: %v", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

func (c *Client) accessToken(ctx context.Context) string {
	c.mu.RLock()
	provider := c.credentials
	c.mu.RUnlock()

	if provider == nil {
		return ""
	}
	return provider.AccessToken(ctx)
}

func (c *Client) notifyUnauthorized(ctx context.Context) {
	c.mu.RLock()
	handler := c.onUnauthorized
	c.mu.RUnlock()

	if handler != nil {
		handler(ctx)
	}
}

func (c *Client) recordMetrics(method, route string, status int, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordRequest(method, route, status, time.Since(start))
	}
}

func (c *Client) logRequest(msg string) {
	if c.logger != nil {
		c.logger.Info(msg)
	}
}

func (c *Client) logFailure(method, path string, status int, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Error("API Error",
		ports.F("method", method),
		ports.F("path", path),
		ports.F("status", status),
		ports.F("error", err),
	)
}

// backendMessage pulls a user facing message out of an error body
func backendMessage(body []byte) string {
	if len(body) == 0 || len(body) > maxErrorBodyBytes {
		return ""
	}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}

	var text string
	if err := json.Unmarshal(payload.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
