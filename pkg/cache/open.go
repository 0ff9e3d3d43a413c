package cache

import (
	"context"
	"fmt"

	"github.com/rubiojr/reposearch/pkg/config"
	"github.com/rubiojr/reposearch/pkg/core"
)

// Open returns the store selected by cfg.Cache.Driver.
func Open(ctx context.Context, cfg *config.Config) (AdminStore, error) {
	switch cfg.Cache.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverSQLite, "":
		store, err := NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening sqlite cache: %w", core.ErrCache, err)
		}
		return store, nil
	case config.DriverRedis:
		store, err := NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			Prefix:   cfg.Cache.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrCache, err)
		}
		return store, nil
	default:
		return nil, &core.ConfigurationError{Setting: "cache driver", Reason: fmt.Sprintf("%q is not supported", cfg.Cache.Driver)}
	}
}
