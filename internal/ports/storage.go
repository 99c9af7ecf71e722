package ports

import "context"

// Storage is a flat string key/value store that survives process restarts.
// Get returns a NotFound AppError for missing keys.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
}

// Storage keys shared by the state stores
const (
	KeyAccessToken     = "accessToken"
	KeyRefreshToken    = "refreshToken"
	KeyCurrentLocation = "currentLocation"
	KeySavedLocations  = "savedLocations"
	KeyThemeMode       = "themeMode"
)
