package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BioInfo/chronoscope/internal/tracing"
)

// windowScript increments the counter for KEYS[1], starting its window of
// ARGV[1] milliseconds on the first hit, and returns {count, pttl}.
var windowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

// RedisRateLimitStore implements RateLimitStore with fixed window counters
// shared by every API instance. On Redis errors it fails open and allows
// the request.
type RedisRateLimitStore struct {
	client  *redis.Client
	prefix  string
	metrics *Metrics
	logger  *slog.Logger
}

// RedisRateLimitOption configures a RedisRateLimitStore.
type RedisRateLimitOption func(*RedisRateLimitStore)

// WithRateLimitKeyPrefix namespaces the counter keys.
func WithRateLimitKeyPrefix(prefix string) RedisRateLimitOption {
	return func(s *RedisRateLimitStore) { s.prefix = prefix }
}

// WithRateLimitMetrics counts fail-open events on m.
func WithRateLimitMetrics(m *Metrics) RedisRateLimitOption {
	return func(s *RedisRateLimitStore) { s.metrics = m }
}

// WithRateLimitLogger sets the logger for fail-open warnings.
func WithRateLimitLogger(l *slog.Logger) RedisRateLimitOption {
	return func(s *RedisRateLimitStore) { s.logger = l }
}

// NewRedisRateLimitStore creates a RedisRateLimitStore.
func NewRedisRateLimitStore(client *redis.Client, opts ...RedisRateLimitOption) *RedisRateLimitStore {
	s := &RedisRateLimitStore{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow implements RateLimitStore.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int, int) {
	redisKey := s.prefix + key
	if config.Name != "" {
		redisKey = s.prefix + config.Name + ":" + key
	}

	count, ttl, err := s.incr(ctx, redisKey, config.WindowDuration)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncRateLimitRedisErrors()
		}
		s.logger.WarnContext(ctx, "rate limit check failed, allowing request",
			"limit", config.Name,
			"error", err,
		)
		return true, config.RequestsPerWindow, 0
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, config.RequestsPerWindow - int(count), 0
	}
	if ttl <= 0 {
		ttl = config.WindowDuration
	}
	return false, 0, retryAfterSeconds(ttl)
}

func (s *RedisRateLimitStore) incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error) {
	ctx, endSpan := tracing.StartRedisSpan(ctx, "INCR", key)
	defer func() { endSpan(err) }()

	res, err := windowScript.Run(ctx, s.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply length %d", len(res))
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
