package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storepulse/backend/internal/domain/snapshot"
	"github.com/storepulse/backend/internal/infrastructure/config"
)

// Locker is a rebuild locker that owns resources to release on shutdown
type Locker interface {
	snapshot.RebuildLocker
	Close() error
}

// LockerFactoryOption is a functional option for NewRebuildLocker
type LockerFactoryOption func(*lockerFactory)

type lockerFactory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockerFactoryOption {
	return func(f *lockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory locker. Outside production the default is true.
func WithInMemoryFallback(allow bool) LockerFactoryOption {
	return func(f *lockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRebuildLocker creates the locker selected by snapshot.lock_backend.
func NewRebuildLocker(ctx context.Context, cfg *config.Config, opts ...LockerFactoryOption) (Locker, error) {
	f := &lockerFactory{
		logger:                zap.NewNop(),
		allowInMemoryFallback: cfg.App.Env != "production",
	}
	for _, opt := range opts {
		opt(f)
	}

	switch cfg.Snapshot.LockBackend {
	case config.LockBackendMemory:
		f.logger.Info("using in-memory rebuild locker")
		return NewInMemoryRebuildLocker(), nil
	case config.LockBackendRedis:
		locker, err := NewRedisRebuildLocker(ctx, &redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			f.logger.Info("using Redis rebuild locker", zap.String("addr", cfg.Redis.Addr()))
			return locker, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis required for rebuild leases but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory rebuild locker. "+
			"Concurrent rebuilds across instances are not excluded.",
			zap.Error(err),
		)
		return NewInMemoryRebuildLocker(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Snapshot.LockBackend)
	}
}
