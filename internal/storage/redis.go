package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"clipstack/internal/clip"
)

// DefaultRedisPrefix namespaces clipstack keys inside a shared Redis database.
const DefaultRedisPrefix = "clipstack:"

// RedisStorage implements clip.Storage with plain GET/SET on prefixed keys.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage connects to the Redis server at addr.
func NewRedisStorage(addr, password string, db int, prefix string) *RedisStorage {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStorageFromClient(client, prefix)
}

// NewRedisStorageFromClient wraps an existing client. The storage owns the
// client and closes it on Close.
func NewRedisStorageFromClient(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) redisKey(key string) string {
	return s.prefix + key
}

// Get returns the value stored under key.
func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, clip.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Put stores data under key with no expiry.
func (s *RedisStorage) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.redisKey(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ValidateSetup pings the server.
func (s *RedisStorage) ValidateSetup(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Compile-time check that RedisStorage implements clip.Storage
var _ clip.Storage = (*RedisStorage)(nil)
