package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/claim-triage/internal/adapters/cache"
	"github.com/mikey/claim-triage/internal/config"
	"github.com/mikey/claim-triage/internal/ports"
)

// CacheFactory creates extraction caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates an extraction cache based on the configuration
func (f *CacheFactory) CreateCacheRepository() (ports.CacheRepository, error) {
	cacheCfg := f.cfg.GetCache()

	switch cacheCfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cacheCfg.TTL, cacheCfg.CleanupFreq), nil
	case "sqlite":
		if err := ensureDir(cacheCfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.TTL, cacheCfg.CleanupFreq)
	case "mysql":
		return cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.TTL, cacheCfg.CleanupFreq)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cacheCfg.RedisAddr,
			Password: cacheCfg.RedisPassword,
			DB:       cacheCfg.RedisDB,
		})
		c, err := cache.NewRedisCache(context.Background(), client, cacheCfg.RedisPrefix, cacheCfg.TTL, f.logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		return c, nil
	case "file":
		return cache.NewFileCache(cacheCfg.FilePath, f.logger)
	case "none", "":
		return cache.NoopCache{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
