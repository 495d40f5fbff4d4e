package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter tracks delivery attempts per task across queue
// redeliveries. Counts live in redis with a TTL so abandoned keys age
// out on their own.
type AttemptCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAttemptCounter(rdb *redis.Client, ttl time.Duration) *AttemptCounter {
	return &AttemptCounter{rdb: rdb, ttl: ttl}
}

// IncrementAndGet increments the attempt count for a key and returns the
// new count. If redis is unavailable the count is reported as 1 so a
// counter outage cannot park every task on the DLQ.
func (c *AttemptCounter) IncrementAndGet(ctx context.Context, key string) (int64, error) {
	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 1, err
	}

	// Set expiration on first increment
	if count == 1 {
		c.rdb.Expire(ctx, key, c.ttl)
	}

	return count, nil
}

// Reset clears the attempt count for a key.
func (c *AttemptCounter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// FormatAttemptKey builds the counter key for a task message.
func FormatAttemptKey(handler, messageID string) string {
	return fmt.Sprintf("attempts:%s:%s", handler, messageID)
}
