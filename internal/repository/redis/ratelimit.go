package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sendLimitPrefix = "chat:sendlimit:"

// SendLimiter throttles message sends per anonymous user with a fixed
// one-minute window in Redis.
type SendLimiter struct {
	client            *Client
	requestsPerMinute int
	burst             int
}

// NewSendLimiter creates a new send limiter
func NewSendLimiter(client *Client, requestsPerMinute, burst int) *SendLimiter {
	return &SendLimiter{
		client:            client,
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
	}
}

// Allow checks whether a send from the given user should go through.
// Returns (allowed, remaining, resetTime, error).
func (l *SendLimiter) Allow(ctx context.Context, userID string) (bool, int, time.Time, error) {
	key := sendLimitPrefix + userID
	windowEnd := time.Now().Truncate(time.Minute).Add(time.Minute)

	pipe := l.client.rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, time.Minute)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute send limit check: %w", err)
	}

	count := incrCmd.Val()
	limit := int64(l.requestsPerMinute + l.burst)
	remaining := int(limit - count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining, windowEnd, nil
}

// Reset clears the send counter for a user
func (l *SendLimiter) Reset(ctx context.Context, userID string) error {
	return l.client.rdb.Del(ctx, sendLimitPrefix+userID).Err()
}
