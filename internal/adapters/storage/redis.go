package storage

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"skydash.app/internal/config"
	"skydash.app/pkg/errors"
)

const clearBatchSize = 100

// RedisStorage keeps keys in Redis under a common prefix so several
// installations can share one database
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects and pings the server before returning
func NewRedisStorage(cfg *config.RedisConfig, prefix string) (*RedisStorage, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("redis config cannot be nil", nil)
	}
	if prefix == "" {
		return nil, errors.NewConfigurationError("redis key prefix cannot be empty", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewStorageError("failed to connect to Redis", err)
	}

	return &RedisStorage{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisStorage) key(key string) string {
	return r.prefix + key
}

func (r *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", notFound(key)
		}
		return "", errors.NewStorageError("redis get operation failed", err)
	}
	return val, nil
}

// Set stores the value without expiry
func (r *RedisStorage) Set(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return errors.NewStorageError("redis set operation failed", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.NewStorageError("redis delete operation failed", err)
	}
	return nil
}

func (r *RedisStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	count, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, errors.NewStorageError("redis exists operation failed", err)
	}
	return count > 0, nil
}

// Clear removes only the keys under this store's prefix
func (r *RedisStorage) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, escapeGlob(r.prefix)+"*", clearBatchSize).Result()
		if err != nil {
			return errors.NewStorageError("redis clear operation failed", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return errors.NewStorageError("redis clear operation failed", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax
func escapeGlob(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.NewStorageError("Redis ping failed", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		return errors.NewStorageError("failed to close Redis connection", err)
	}
	return nil
}
