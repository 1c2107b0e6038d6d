package storage

import (
	"context"
	"fmt"
	"os"

	"clipstack/internal/clip"
	"clipstack/internal/config"
)

// NewStorageFromConfig creates a clip.Storage implementation based on the storage config type.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (clip.Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem storage requires fs_root to be set")
		}
		s, err := NewFileSystemStorage(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires sqlite_path to be set")
		}
		s, err := NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis storage requires redis_addr to be set")
		}
		var password string
		if cfg.RedisPasswordEnv != "" {
			password = os.Getenv(cfg.RedisPasswordEnv)
		}
		return NewRedisStorage(cfg.RedisAddr, password, cfg.RedisDB, cfg.RedisPrefix), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires s3_bucket to be set")
		}
		s, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
