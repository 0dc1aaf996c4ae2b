package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/storepulse/backend/internal/domain/snapshot"
)

const defaultLeaseKeyPrefix = "storepulse:lease:"

// releaseScript deletes the lease only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRebuildLocker implements snapshot.RebuildLocker on Redis so that
// several instances share one lease per organization and kind.
type RedisRebuildLocker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRebuildLocker connects to Redis and verifies the connection
func NewRedisRebuildLocker(ctx context.Context, opts *redis.Options) (*RedisRebuildLocker, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRebuildLockerWithClient(client, ""), nil
}

// NewRedisRebuildLockerWithClient creates a locker on an existing client
func NewRedisRebuildLockerWithClient(client *redis.Client, keyPrefix string) *RedisRebuildLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLeaseKeyPrefix
	}
	return &RedisRebuildLocker{client: client, keyPrefix: keyPrefix}
}

// Acquire sets the lease key with NX and a TTL. The returned release deletes
// the key only if this holder still owns it.
func (l *RedisRebuildLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rebuild lease: %w", err)
	}
	if !ok {
		return nil, snapshot.ErrRebuildInProgress
	}

	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release rebuild lease: %w", err)
		}
		return nil
	}, nil
}

// Close closes the Redis client
func (l *RedisRebuildLocker) Close() error {
	return l.client.Close()
}

var _ snapshot.RebuildLocker = (*RedisRebuildLocker)(nil)
