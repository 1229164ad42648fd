package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/liamwears/kinocatalog/internal/config"
	"github.com/liamwears/kinocatalog/internal/store"
)

// Backend is a persistence backend that can report its health
type Backend interface {
	store.Backend
	Health(ctx context.Context) error
}

type memoryBackend struct {
	*store.MemoryBackend
}

func (memoryBackend) Health(context.Context) error { return nil }

// OpenBackend selects the persistence backend named by the configuration.
// redis may be nil unless the redis backend is selected. The returned close
// function releases whatever the backend opened.
func OpenBackend(ctx context.Context, cfg *config.Config, redis *RedisClient, logger logrus.FieldLogger) (Backend, func(), error) {
	logger = logger.WithField("backend", cfg.Storage.Backend)
	noop := func() {}

	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; favorites and theme are lost on restart")
		return memoryBackend{store.NewMemoryBackend()}, noop, nil

	case config.StorageFile:
		b, err := NewFileBackend(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		logger.WithField("dir", cfg.Storage.Dir).Info("Using file storage")
		return b, noop, nil

	case config.StorageRedis:
		if redis == nil {
			return nil, nil, fmt.Errorf("redis storage requires a Redis connection")
		}
		logger.Info("Using Redis storage")
		return NewRedisBackend(redis, 0), noop, nil

	case config.StoragePostgres:
		db, err := New(ctx, Config{URL: cfg.Database.URL}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := NewMigrator(db.Pool, logger).Up(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return NewPostgresBackend(db), db.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
