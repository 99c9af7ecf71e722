package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"skydash.app/internal/adapters/backend"
	"skydash.app/internal/adapters/storage"
	"skydash.app/internal/ports"
	"skydash.app/pkg/errors"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*backend.AuthTokens, error) {
	args := m.Called(ctx, email, password)
	tokens, _ := args.Get(0).(*backend.AuthTokens)
	return tokens, args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthTokens, error) {
	args := m.Called(ctx, req)
	tokens, _ := args.Get(0).(*backend.AuthTokens)
	return tokens, args.Error(1)
}

func (m *mockAPI) GetProfile(ctx context.Context) (*backend.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*backend.User)
	return user, args.Error(1)
}

func (m *mockAPI) UpdateProfile(ctx context.Context, update backend.ProfileUpdate) (*backend.User, error) {
	args := m.Called(ctx, update)
	user, _ := args.Get(0).(*backend.User)
	return user, args.Error(1)
}

var ada = &backend.User{ID: "1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

func newStore(t *testing.T, mem ports.Storage, api API) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), StoreParams{Storage: mem, API: api})
	require.NoError(t, err)
	return store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestStore_BootstrapWithoutToken(t *testing.T) {
	api := &mockAPI{}
	store := newStore(t, storage.NewMemoryStorage(), api)
	assert.True(t, store.Loading())

	result := store.Bootstrap(context.Background())

	assert.Equal(t, BootstrapAnonymous, result.Outcome)
	assert.False(t, store.Loading())
	assert.False(t, store.Session().Authenticated)
	api.AssertNotCalled(t, "GetProfile", mock.Anything)
}

func TestStore_BootstrapRestoresSession(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, signedToken(t, exp)))

	api := &mockAPI{}
	api.On("GetProfile", mock.Anything).Return(ada, nil).Once()
	store := newStore(t, mem, api)

	result := store.Bootstrap(ctx)

	assert.Equal(t, BootstrapRestored, result.Outcome)
	assert.Equal(t, "Ada Lovelace", result.User.FullName())
	session := store.Session()
	assert.True(t, session.Authenticated)
	require.NotNil(t, session.ExpiresAt)
	assert.True(t, exp.Equal(*session.ExpiresAt))
	assert.False(t, session.Expired(time.Now()))
	assert.False(t, store.Loading())
	api.AssertExpectations(t)
}

func TestStore_BootstrapFailureLogsOut(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, "stale"))
	require.NoError(t, mem.Set(ctx, ports.KeyRefreshToken, "stale-refresh"))

	api := &mockAPI{}
	api.On("GetProfile", mock.Anything).Return(nil, errors.NewHTTPError(http.StatusUnauthorized, "Token expired")).Once()
	store := newStore(t, mem, api)

	result := store.Bootstrap(ctx)

	assert.Equal(t, BootstrapLoggedOut, result.Outcome)
	assert.Equal(t, "Token expired", result.Err)
	assert.Equal(t, "", store.AccessToken(ctx))
	assert.False(t, store.Loading())

	for _, key := range []string{ports.KeyAccessToken, ports.KeyRefreshToken} {
		exists, err := mem.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	api := &mockAPI{}
	api.On("Login", mock.Anything, "ada@example.com", "secret").
		Return(&backend.AuthTokens{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil).Once()
	api.On("GetProfile", mock.Anything).Return(ada, nil).Once()
	store := newStore(t, mem, api)

	user, err := store.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	assert.Equal(t, "access-1", store.AccessToken(ctx))
	session := store.Session()
	assert.True(t, session.Authenticated)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.Nil(t, session.ExpiresAt)

	raw, err := mem.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access-1", raw)
	raw, err = mem.Get(ctx, ports.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", raw)
	api.AssertExpectations(t)
}

func TestStore_LoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		tokens    *backend.AuthTokens
		apiErr    error
		errorType errors.ErrorType
		message   string
	}{
		{
			name:      "InvalidEmail",
			email:     "not-an-email",
			password:  "secret",
			errorType: errors.ErrorTypeValidation,
		},
		{
			name:      "MissingPassword",
			email:     "ada@example.com",
			errorType: errors.ErrorTypeValidation,
		},
		{
			name:      "Rejected",
			email:     "ada@example.com",
			password:  "wrong",
			apiErr:    errors.NewHTTPError(http.StatusBadRequest, "Invalid credentials"),
			errorType: errors.ErrorTypeHTTP,
			message:   "Invalid credentials",
		},
		{
			name:      "NoToken",
			email:     "ada@example.com",
			password:  "secret",
			tokens:    &backend.AuthTokens{},
			errorType: errors.ErrorTypeAuth,
			message:   NoTokenMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := storage.NewMemoryStorage()
			api := &mockAPI{}
			api.On("Login", mock.Anything, tt.email, tt.password).Return(tt.tokens, tt.apiErr).Maybe()
			store := newStore(t, mem, api)

			_, err := store.Login(ctx, tt.email, tt.password)
			require.Error(t, err)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.errorType, appErr.Type)
			if tt.message != "" {
				assert.Equal(t, tt.message, errors.UserMessage(err, LoginFailedMessage))
			}

			exists, err := mem.Exists(ctx, ports.KeyAccessToken)
			require.NoError(t, err)
			assert.False(t, exists)
			assert.False(t, store.Session().Authenticated)
			api.AssertNotCalled(t, "GetProfile", mock.Anything)
		})
	}
}

func TestStore_LoginNetworkFailureFallsBackToGeneric(t *testing.T) {
	api := &mockAPI{}
	api.On("Login", mock.Anything, "ada@example.com", "secret").Return(nil, stderrors.New("dial tcp: refused"))
	store := newStore(t, storage.NewMemoryStorage(), api)

	_, err := store.Login(context.Background(), "ada@example.com", "secret")
	assert.Equal(t, LoginFailedMessage, errors.UserMessage(err, LoginFailedMessage))
}

func TestStore_Register(t *testing.T) {
	req := backend.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "secret1"}

	t.Run("WithToken", func(t *testing.T) {
		ctx := context.Background()
		mem := storage.NewMemoryStorage()
		api := &mockAPI{}
		api.On("Register", mock.Anything, req).Return(&backend.AuthTokens{AccessToken: "access-2"}, nil).Once()
		api.On("GetProfile", mock.Anything).Return(ada, nil).Once()
		store := newStore(t, mem, api)

		user, err := store.Register(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "access-2", store.AccessToken(ctx))

		exists, err := mem.Exists(ctx, ports.KeyRefreshToken)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("WithoutToken", func(t *testing.T) {
		ctx := context.Background()
		mem := storage.NewMemoryStorage()
		api := &mockAPI{}
		api.On("Register", mock.Anything, req).Return(&backend.AuthTokens{}, nil).Once()
		store := newStore(t, mem, api)

		user, err := store.Register(ctx, req)
		require.NoError(t, err)
		assert.Nil(t, user)
		assert.Equal(t, "", store.AccessToken(ctx))
		api.AssertNotCalled(t, "GetProfile", mock.Anything)

		exists, err := mem.Exists(ctx, ports.KeyAccessToken)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		api := &mockAPI{}
		store := newStore(t, storage.NewMemoryStorage(), api)

		short := req
		short.Password = "123"
		_, err := store.Register(context.Background(), short)
		assert.True(t, errors.IsValidationError(err))
		api.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, "access"))
	require.NoError(t, mem.Set(ctx, ports.KeyRefreshToken, "refresh"))

	api := &mockAPI{}
	api.On("GetProfile", mock.Anything).Return(ada, nil).Once()
	store := newStore(t, mem, api)
	require.Equal(t, BootstrapRestored, store.Bootstrap(ctx).Outcome)

	require.NoError(t, store.Logout(ctx))

	session := store.Session()
	assert.False(t, session.Authenticated)
	assert.Nil(t, session.User)
	assert.Equal(t, "", store.AccessToken(ctx))

	exists, err := mem.Exists(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Logout(ctx))
}

func TestStore_HandleUnauthorized(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, "access"))
	store := newStore(t, mem, &mockAPI{})

	store.HandleUnauthorized(ctx)

	assert.Equal(t, "", store.AccessToken(ctx))
	exists, err := mem.Exists(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	update := backend.ProfileUpdate{FirstName: "Augusta", LastName: "King", Email: "ada@example.com"}
	updated := &backend.User{ID: "1", FirstName: "Augusta", LastName: "King", Email: "ada@example.com"}

	t.Run("Success", func(t *testing.T) {
		mem := storage.NewMemoryStorage()
		require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, "access"))
		api := &mockAPI{}
		api.On("UpdateProfile", mock.Anything, update).Return(nil, nil).Once()
		api.On("GetProfile", mock.Anything).Return(updated, nil).Once()
		store := newStore(t, mem, api)

		user, err := store.UpdateProfile(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, "Augusta King", user.FullName())
		assert.Equal(t, "Augusta King", store.Session().User.FullName())
		api.AssertExpectations(t)
	})

	t.Run("NotLoggedIn", func(t *testing.T) {
		api := &mockAPI{}
		store := newStore(t, storage.NewMemoryStorage(), api)

		_, err := store.UpdateProfile(ctx, update)
		assert.True(t, errors.IsAuthError(err))
		api.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
	})

	t.Run("Invalid", func(t *testing.T) {
		store := newStore(t, storage.NewMemoryStorage(), &mockAPI{})

		_, err := store.UpdateProfile(ctx, backend.ProfileUpdate{FirstName: "A"})
		assert.True(t, errors.IsValidationError(err))
	})
}

func TestStore_SessionReturnsCopy(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	require.NoError(t, mem.Set(ctx, ports.KeyAccessToken, "access"))
	api := &mockAPI{}
	api.On("GetProfile", mock.Anything).Return(&backend.User{FirstName: "Ada"}, nil)
	store := newStore(t, mem, api)
	store.Bootstrap(ctx)

	session := store.Session()
	session.User.FirstName = "changed"
	assert.Equal(t, "Ada", store.Session().User.FirstName)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, Session{}.Expired(now))
	assert.True(t, Session{ExpiresAt: &past}.Expired(now))
	assert.False(t, Session{ExpiresAt: &future}.Expired(now))
}

func TestStore_ImplementsCredentialProvider(t *testing.T) {
	var _ ports.CredentialProvider = &Store{}
}
