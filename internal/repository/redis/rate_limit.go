package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitStore implements a sliding-window counter over Redis sorted sets.
// Each attempt is a ZSET member scored by its unix-nano timestamp.
type RateLimitStore struct {
	client *redis.Client
	prefix string
}

func NewRateLimitStore(client *redis.Client, prefix string) *RateLimitStore {
	return &RateLimitStore{client: client, prefix: prefix}
}

func (s *RateLimitStore) keyFor(key string) string {
	return s.prefix + ":ratelimit:" + key
}

// TrimWindow drops attempts that fell out of the window.
func (s *RateLimitStore) TrimWindow(ctx context.Context, key string, cutoff time.Time) error {
	max := strconv.FormatInt(cutoff.UnixNano(), 10)
	if err := s.client.ZRemRangeByScore(ctx, s.keyFor(key), "0", max).Err(); err != nil {
		return fmt.Errorf("trim rate limit window: %w", err)
	}
	return nil
}

// CountAttempts returns the number of attempts recorded since cutoff.
func (s *RateLimitStore) CountAttempts(ctx context.Context, key string, cutoff time.Time) (int64, error) {
	min := strconv.FormatInt(cutoff.UnixNano(), 10)
	count, err := s.client.ZCount(ctx, s.keyFor(key), min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit attempts: %w", err)
	}
	return count, nil
}

// RecordAttempt registers an attempt and refreshes the key TTL so idle keys
// expire on their own.
func (s *RateLimitStore) RecordAttempt(ctx context.Context, key string, at time.Time, window time.Duration) error {
	rkey := s.keyFor(key)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: strconv.FormatInt(at.UnixNano(), 10),
	})
	pipe.Expire(ctx, rkey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}
	return nil
}

// OldestAttempt returns the timestamp of the oldest attempt still inside the
// window, used to compute Retry-After.
func (s *RateLimitStore) OldestAttempt(ctx context.Context, key string, cutoff time.Time) (time.Time, error) {
	min := strconv.FormatInt(cutoff.UnixNano(), 10)
	members, err := s.client.ZRangeByScore(ctx, s.keyFor(key), &redis.ZRangeBy{
		Min:   min,
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, fmt.Errorf("oldest rate limit attempt: %w", err)
	}
	if len(members) == 0 {
		return time.Time{}, nil
	}
	nanos, err := strconv.ParseInt(members[0], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse rate limit member: %w", err)
	}
	return time.Unix(0, nanos), nil
}
