// Package lock provides a Redis-backed write guard that turns concurrent
// writers to the same resource into fast 409 responses.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/utafrali/catalog/pkg/errors"
)

const keyPrefix = "catalog:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another writer is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker hands out short-lived exclusive locks keyed by resource name.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a locker whose locks expire after ttl unless
// released earlier.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire takes the lock for key. When another holder has it, Acquire fails
// with a CONFLICT error without waiting. The returned function releases the
// lock and is safe to call once the request context is gone.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis acquire lock: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict(fmt.Sprintf("%s is being modified by another request", key))
	}

	release := func() {
		// Detached from ctx so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.WarnContext(ctx, "failed to release write lock",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return release, nil
}
