// Package auth owns the login session: persisted tokens, the signed in
// user and the bootstrap that restores both on start.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

const (
	LoginFailedMessage    = "Login failed"
	RegisterFailedMessage = "Registration failed"
	UpdateFailedMessage   = "Update failed"
	NoTokenMessage        = "Login successful but no token received."
)

// API is the part of the backend the store talks to
type API interface {
	Login(ctx context.Context, email, password string) (*backend.AuthTokens, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthTokens, error)
	GetProfile(ctx context.Context) (*backend.User, error)
	UpdateProfile(ctx context.Context, update backend.ProfileUpdate) (*backend.User, error)
}

type Session struct {
	Authenticated bool          `json:"authenticated"`
	AccessToken   string        `json:"-"`
	RefreshToken  string        `json:"-"`
	User          *backend.User `json:"user,omitempty"`
	ExpiresAt     *time.Time    `json:"expiresAt,omitempty"`
}

// Expired reports whether the token carries an expiry that has passed.
// A token without exp never expires here; the backend stays the authority.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

type BootstrapOutcome string

const (
	// BootstrapAnonymous means no token was stored
	BootstrapAnonymous BootstrapOutcome = "anonymous"
	// BootstrapRestored means the stored token was accepted
	BootstrapRestored BootstrapOutcome = "restored"
	// BootstrapLoggedOut means the stored token was rejected and cleared
	BootstrapLoggedOut BootstrapOutcome = "logged_out"
)

type BootstrapResult struct {
	Outcome BootstrapOutcome `json:"outcome"`
	User    *backend.User    `json:"user,omitempty"`
	Err     string           `json:"error,omitempty"`
}

type StoreParams struct {
	Storage ports.Storage
	API     API
	Logger  ports.Logger
}

// Store is safe for concurrent use. It implements ports.CredentialProvider.
type Store struct {
	storage ports.Storage
	api     API
	logger  ports.Logger

	mu      sync.RWMutex
	session Session
	loading bool
}

// NewStore reads persisted tokens. The store reports Loading until
// Bootstrap has run.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, errors.NewConfigurationError("auth store requires storage", nil)
	}
	if params.API == nil {
		return nil, errors.NewConfigurationError("auth store requires the auth API", nil)
	}

	s := &Store{
		storage: params.Storage,
		api:     params.API,
		logger:  params.Logger,
		loading: true,
	}

	access, err := s.read(ctx, ports.KeyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.read(ctx, ports.KeyRefreshToken)
	if err != nil {
		return nil, err
	}
	s.setTokens(access, refresh)

	return s, nil
}

// AccessToken returns the current bearer token, or "" when logged out
func (s *Store) AccessToken(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.AccessToken
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session := s.session
	if session.User != nil {
		user := *session.User
		session.User = &user
	}
	return session
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Bootstrap validates a stored token by fetching the profile. Any failure
// logs the user out rather than surfacing an error.
func (s *Store) Bootstrap(ctx context.Context) BootstrapResult {
	defer s.setLoading(false)

	if s.AccessToken(ctx) == "" {
		return BootstrapResult{Outcome: BootstrapAnonymous}
	}

	user, err := s.FetchProfile(ctx)
	if err != nil {
		s.warn("Auto-login failed", err)
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			s.warn("Failed to clear stored tokens", logoutErr)
		}
		return BootstrapResult{Outcome: BootstrapLoggedOut, Err: errors.UserMessage(err, LoginFailedMessage)}
	}
	return BootstrapResult{Outcome: BootstrapRestored, User: user}
}

func (s *Store) Login(ctx context.Context, email, password string) (*backend.User, error) {
	req := backend.LoginRequest{Email: email, Password: password}
	if err := validation.Struct(req); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid login: %v", err))
	}

	tokens, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if tokens == nil || tokens.AccessToken == "" {
		return nil, errors.NewAuthError(NoTokenMessage)
	}

	if err := s.persistTokens(ctx, tokens); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx)
}

// Register creates the account and signs in only when the backend returned
// an access token. The user is nil otherwise.
func (s *Store) Register(ctx context.Context, req backend.RegisterRequest) (*backend.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid registration: %v", err))
	}

	tokens, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	if tokens == nil || tokens.AccessToken == "" {
		return nil, nil
	}

	if err := s.persistTokens(ctx, tokens); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx)
}

// Logout removes both tokens and forgets the user. In-memory state is
// cleared even when storage fails.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = Session{}
	s.mu.Unlock()

	var firstErr error
	for _, key := range []string{ports.KeyAccessToken, ports.KeyRefreshToken} {
		if err := s.storage.Delete(ctx, key); err != nil && !errors.IsNotFoundError(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// HandleUnauthorized is meant as the HTTP client's UnauthorizedHandler
func (s *Store) HandleUnauthorized(ctx context.Context) {
	if s.AccessToken(ctx) == "" {
		return
	}
	if s.logger != nil {
		s.logger.Info("Clearing session after unauthorized response")
	}
	if err := s.Logout(ctx); err != nil {
		s.warn("Failed to clear stored tokens", err)
	}
}

func (s *Store) FetchProfile(ctx context.Context) (*backend.User, error) {
	user, err := s.api.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.User = user
	s.session.Authenticated = s.session.AccessToken != ""
	copied := *user
	return &copied, nil
}

// UpdateProfile saves the profile and re-reads it from the backend
func (s *Store) UpdateProfile(ctx context.Context, update backend.ProfileUpdate) (*backend.User, error) {
	if err := validation.Struct(update); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid profile: %v", err))
	}
	if s.AccessToken(ctx) == "" {
		return nil, errors.NewAuthError("Not logged in")
	}

	if _, err := s.api.UpdateProfile(ctx, update); err != nil {
		return nil, err
	}
	return s.FetchProfile(ctx)
}

func (s *Store) persistTokens(ctx context.Context, tokens *backend.AuthTokens) error {
	if err := s.storage.Set(ctx, ports.KeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}
	if tokens.RefreshToken != "" {
		if err := s.storage.Set(ctx, ports.KeyRefreshToken, tokens.RefreshToken); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	refresh := s.session.RefreshToken
	if tokens.RefreshToken != "" {
		refresh = tokens.RefreshToken
	}
	s.setTokensLocked(tokens.AccessToken, refresh)
	return nil
}

func (s *Store) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTokensLocked(access, refresh)
}

func (s *Store) setTokensLocked(access, refresh string) {
	s.session.AccessToken = access
	s.session.RefreshToken = refresh
	s.session.ExpiresAt = tokenExpiry(access)
	if access == "" {
		s.session.Authenticated = false
		s.session.User = nil
	}
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

func (s *Store) read(ctx context.Context, key string) (string, error) {
	v, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (s *Store) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, ports.F("error", err.Error()))
	}
}

// tokenExpiry reads the exp claim without verifying the signature. Opaque
// tokens simply have no expiry.
func tokenExpiry(token string) *time.Time {
	if token == "" {
		return nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
