// Package cache provides the response caches used by the inference client.
package cache

import (
	"context"
	"fmt"

	"github.com/Veraticus/finsight/internal/config"
	"github.com/Veraticus/finsight/internal/service"
)

// Compile-time interface checks.
var (
	_ service.Cache = (*Memory)(nil)
	_ service.Cache = (*Redis)(nil)
)

// New returns the cache selected by cfg, or nil when caching is disabled.
func New(ctx context.Context, cfg config.CacheConfig) (service.Cache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Backend {
	case "memory":
		return NewMemory(cfg.TTL, defaultMaxEntries), nil
	case "redis":
		r, err := NewRedis(ctx, RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			UseTLS:   cfg.Redis.UseTLS,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
