package storage

import (
	"context"
	"fmt"
	"strings"

	"ytcollector-go/internal/config"
	"ytcollector-go/internal/events"

	log "github.com/sirupsen/logrus"
)

// NewBackend builds, initializes and instruments the configured backend.
func NewBackend(ctx context.Context, cfg config.CacheConfig) (Backend, error) {
	if !cfg.Enabled {
		return nil, ErrCacheDisabled
	}
	var backend Backend
	switch strings.ToLower(cfg.Backend) {
	case "", "mongodb", "mongo":
		backend = NewMongoBackend(cfg.MongoURI, cfg.MongoDatabase)
	case "redis":
		backend = NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}
	if err := backend.Initialize(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return WithInstrumentation(backend), nil
}

// Open returns a Store for cfg. When caching is disabled it returns a nil
// *Store, which always misses.
func Open(ctx context.Context, cfg config.CacheConfig, pub events.Publisher) (*Store, error) {
	backend, err := NewBackend(ctx, cfg)
	if err == ErrCacheDisabled {
		log.Info("cache disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.WithField("backend", backend.Name()).Info("cache backend ready")
	return NewStore(backend, WithPublisher(pub)), nil
}
