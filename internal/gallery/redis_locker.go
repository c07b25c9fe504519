package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/BioInfo/chronoscope/internal/tracing"
)

// Default settings for RedisLocker.
const (
	DefaultRedisLockKey   = "chronoscope:gallery:save-lock"
	DefaultRedisLockTTL   = 10 * time.Second
	DefaultRedisLockRetry = 25 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker extends a local Locker across processes with a Redis key set
// via SET NX PX. The local lock is taken first so only one goroutine per
// process polls Redis, and arrival order within a process is kept.
type RedisLocker struct {
	client *redis.Client
	local  Locker
	key    string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

// WithLockKey overrides the Redis key.
func WithLockKey(key string) RedisLockerOption {
	return func(l *RedisLocker) { l.key = key }
}

// WithLockTTL overrides how long the Redis key lives if its holder dies.
func WithLockTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) { l.ttl = ttl }
}

// NewRedisLocker creates a RedisLocker. If local is nil a new FIFOLocker is used.
func NewRedisLocker(client *redis.Client, local Locker, logger *slog.Logger, opts ...RedisLockerOption) *RedisLocker {
	if local == nil {
		local = NewFIFOLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &RedisLocker{
		client: client,
		local:  local,
		key:    DefaultRedisLockKey,
		ttl:    DefaultRedisLockTTL,
		retry:  DefaultRedisLockRetry,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock acquires the local lock and then the Redis key, polling until the
// key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context) (unlock func(), err error) {
	unlockLocal, err := l.local.Lock(ctx)
	if err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartRedisSpan(ctx, "SETNX", l.key)
	defer func() { endSpan(err) }()

	token := uuid.NewString()
	for {
		ok, setErr := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if setErr != nil {
			unlockLocal()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire redis lock: %w", setErr)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			unlockLocal()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// Release on a fresh context: the caller's may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release redis gallery lock", "key", l.key, "error", err)
		}
		unlockLocal()
	}, nil
}
