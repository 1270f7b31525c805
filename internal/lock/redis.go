package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
	defaultKeyPrefix = "studiobook:lock:"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockerConfig tunes the distributed locker.
type RedisLockerConfig struct {
	TTL    time.Duration
	Retry  time.Duration
	Prefix string
}

// RedisLocker is a lease-based lock shared by every process using the same Redis.
type RedisLocker struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *zerolog.Logger
}

func NewRedisLocker(rdb redis.Cmdable, cfg RedisLockerConfig, logger *zerolog.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultLockTTL
	}
	if cfg.Retry <= 0 {
		cfg.Retry = defaultLockRetry
	}
	if cfg.Prefix == "" {
		cfg.Prefix = defaultKeyPrefix
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RedisLocker{
		rdb:    rdb,
		ttl:    cfg.TTL,
		retry:  cfg.Retry,
		prefix: cfg.Prefix,
		logger: logger,
	}
}

// Lock polls SET NX until the key is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("acquire lock %s: %w", key, ctxErr)
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be canceled; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn().Err(err).Str("key", redisKey).Msg("failed to release lock")
		}
	}, nil
}
