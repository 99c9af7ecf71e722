package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"skydash.app/pkg/errors"
	"skydash.app/pkg/validation"
)

const (
	maxRedisDB    = 15
	maxPortNumber = 65535
	maxTimeoutMS  = 300000
	minMapZoom    = 2
	maxMapZoom    = 18
)

// Config represents the application configuration structure
type Config struct {
	API             APIConfig             `split_words:"true"`
	Map             MapConfig             `split_words:"true"`
	DefaultLocation DefaultLocationConfig `split_words:"true"`
	Storage         StorageConfig         `split_words:"true"`
	Geolocation     GeolocationConfig     `split_words:"true"`
	Server          ServerConfig          `split_words:"true"`
	Logging         LoggingConfig         `split_words:"true"`
}

// APIConfig configures the backend HTTP client
type APIConfig struct {
	BaseURL             string  `envconfig:"API_BASE_URL" default:"http://localhost:3000/api"`
	TimeoutMS           int     `envconfig:"API_TIMEOUT_MS" default:"10000"`
	ClearOnUnauthorized bool    `envconfig:"API_CLEAR_ON_UNAUTHORIZED" default:"false"`
	RateLimitRPS        float64 `envconfig:"API_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst      int     `envconfig:"API_RATE_LIMIT_BURST" default:"1"`
}

type MapConfig struct {
	DefaultZoom int `envconfig:"MAP_DEFAULT_ZOOM" default:"4"`
}

type DefaultLocationConfig struct {
	Latitude  float64 `envconfig:"DEFAULT_LATITUDE" default:"40.7128"`
	Longitude float64 `envconfig:"DEFAULT_LONGITUDE" default:"-74.0060"`
	Name      string  `envconfig:"DEFAULT_LOCATION_NAME" default:"New York, NY"`
}

// StorageType represents the persistent storage backend
type StorageType int

const (
	StorageTypeUnknown StorageType = iota
	StorageTypeMemory
	StorageTypeFile
	StorageTypeRedis
	StorageTypeDatabase
)

// String returns the string representation of storage type
func (s StorageType) String() string {
	switch s {
	case StorageTypeMemory:
		return "memory"
	case StorageTypeFile:
		return "file"
	case StorageTypeRedis:
		return "redis"
	case StorageTypeDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// IsValid checks if the storage type is valid
func (s StorageType) IsValid() bool {
	return s >= StorageTypeMemory && s <= StorageTypeDatabase
}

// StorageTypeFromString converts string to StorageType enum
func StorageTypeFromString(s string) StorageType {
	switch s {
	case "memory":
		return StorageTypeMemory
	case "file":
		return StorageTypeFile
	case "redis":
		return StorageTypeRedis
	case "database":
		return StorageTypeDatabase
	default:
		return StorageTypeUnknown
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for envconfig
func (s *StorageType) UnmarshalText(text []byte) error {
	*s = StorageTypeFromString(string(text))
	return nil
}

// MarshalText implements encoding.TextMarshaler for envconfig
func (s StorageType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type StorageConfig struct {
	Type      StorageType    `envconfig:"STORAGE_TYPE" default:"file"`
	FilePath  string         `envconfig:"STORAGE_FILE_PATH" default:".skydash/storage.json"`
	KeyPrefix string         `envconfig:"STORAGE_KEY_PREFIX" default:"skydash:"`
	Redis     RedisConfig    `split_words:"true"`
	Database  DatabaseConfig `split_words:"true"`
}

type RedisConfig struct {
	Addr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password     string `envconfig:"REDIS_PASSWORD" default:""`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
}

type DatabaseConfig struct {
	Driver   string `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN      string `envconfig:"DB_DSN" default:""`
	Path     string `envconfig:"DB_PATH" default:".skydash/storage.db"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"skydash"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

func (c DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type GeolocationConfig struct {
	Mode      string  `envconfig:"GEOLOCATION_MODE" default:"ip"`
	URL       string  `envconfig:"GEOLOCATION_URL" default:"http://ip-api.com/json"`
	TimeoutMS int     `envconfig:"GEOLOCATION_TIMEOUT_MS" default:"5000"`
	Latitude  float64 `envconfig:"GEOLOCATION_LATITUDE" default:"0"`
	Longitude float64 `envconfig:"GEOLOCATION_LONGITUDE" default:"0"`
}

type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

type LoggingConfig struct {
	Level    string `envconfig:"LOG_LEVEL" default:"info"`
	FilePath string `envconfig:"LOG_FILE_PATH" default:""`
}

func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Map.Validate(); err != nil {
		return err
	}
	if err := c.DefaultLocation.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Geolocation.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return nil
}

func (a *APIConfig) Validate() error {
	if a.BaseURL == "" {
		return errors.NewConfigurationError("API_BASE_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(a.BaseURL, "http://") && !strings.HasPrefix(a.BaseURL, "https://") {
		return errors.NewConfigurationError("API_BASE_URL must start with http:// or https://", nil)
	}
	if a.TimeoutMS < 1 || a.TimeoutMS > maxTimeoutMS {
		return errors.NewConfigurationError("API_TIMEOUT_MS must be between 1 and 300000", nil)
	}
	if a.RateLimitRPS < 0 {
		return errors.NewConfigurationError("API_RATE_LIMIT_RPS cannot be negative", nil)
	}
	if a.RateLimitRPS > 0 && a.RateLimitBurst < 1 {
		return errors.NewConfigurationError("API_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled", nil)
	}
	return nil
}

func (m *MapConfig) Validate() error {
	if m.DefaultZoom < minMapZoom || m.DefaultZoom > maxMapZoom {
		return errors.NewConfigurationError("MAP_DEFAULT_ZOOM must be between 2 and 18", nil)
	}
	return nil
}

func (d *DefaultLocationConfig) Validate() error {
	if !validation.ValidCoordinates(d.Latitude, d.Longitude) {
		return errors.NewConfigurationError("DEFAULT_LATITUDE/DEFAULT_LONGITUDE must be a valid coordinate pair", nil)
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewConfigurationError("DEFAULT_LOCATION_NAME cannot be empty", nil)
	}
	return nil
}

func (s *StorageConfig) Validate() error {
	if !s.Type.IsValid() {
		return errors.NewConfigurationError("STORAGE_TYPE must be one of: memory, file, redis, database", nil)
	}

	switch s.Type {
	case StorageTypeFile:
		if s.FilePath == "" {
			return errors.NewConfigurationError("STORAGE_FILE_PATH cannot be empty when using file storage", nil)
		}
	case StorageTypeRedis:
		// an empty prefix would let Clear scan and delete every key in the database
		if s.KeyPrefix == "" {
			return errors.NewConfigurationError("STORAGE_KEY_PREFIX cannot be empty when using Redis storage", nil)
		}
		return s.Redis.Validate()
	case StorageTypeDatabase:
		return s.Database.Validate()
	}

	return nil
}

func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return errors.NewConfigurationError("REDIS_ADDR cannot be empty when using Redis storage", nil)
	}
	if r.DB < 0 || r.DB > maxRedisDB {
		return errors.NewConfigurationError("REDIS_DB must be between 0 and 15", nil)
	}
	if r.DialTimeout < 1 {
		return errors.NewConfigurationError("REDIS_DIAL_TIMEOUT must be at least 1 second", nil)
	}
	if r.ReadTimeout < 1 {
		return errors.NewConfigurationError("REDIS_READ_TIMEOUT must be at least 1 second", nil)
	}
	if r.WriteTimeout < 1 {
		return errors.NewConfigurationError("REDIS_WRITE_TIMEOUT must be at least 1 second", nil)
	}
	return nil
}

func (d *DatabaseConfig) Validate() error {
	switch d.Driver {
	case "sqlite":
		if d.Path == "" && d.DSN == "" {
			return errors.NewConfigurationError("DB_PATH cannot be empty when DB_DRIVER is sqlite", nil)
		}
		return nil
	case "postgres":
		if d.DSN != "" {
			return nil
		}
	default:
		return errors.NewConfigurationError("DB_DRIVER must be one of: sqlite, postgres", nil)
	}

	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > maxPortNumber {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	return d.ValidateSSLMode()
}

func (d *DatabaseConfig) ValidateSSLMode() error {
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

func (g *GeolocationConfig) Validate() error {
	switch g.Mode {
	case "ip":
		if !strings.HasPrefix(g.URL, "http://") && !strings.HasPrefix(g.URL, "https://") {
			return errors.NewConfigurationError("GEOLOCATION_URL must start with http:// or https://", nil)
		}
		if g.TimeoutMS < 1 || g.TimeoutMS > maxTimeoutMS {
			return errors.NewConfigurationError("GEOLOCATION_TIMEOUT_MS must be between 1 and 300000", nil)
		}
	case "fixed":
		if !validation.ValidCoordinates(g.Latitude, g.Longitude) {
			return errors.NewConfigurationError("GEOLOCATION_LATITUDE/GEOLOCATION_LONGITUDE must be a valid coordinate pair", nil)
		}
	case "disabled":
	default:
		return errors.NewConfigurationError("GEOLOCATION_MODE must be one of: ip, fixed, disabled", nil)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > maxPortNumber {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}
