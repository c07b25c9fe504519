package health

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewDBChecker reports whether the gallery database accepts connections.
func NewDBChecker(db *sql.DB) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		return nil
	})
}

// NewRedisChecker reports whether the Redis server backing the journal,
// save lock and rate limiter answers PING.
func NewRedisChecker(client redis.UniversalClient) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		return nil
	})
}
