package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// Store records hits in a sliding window
type Store interface {
	// Hit records a hit for key at now and returns the number of hits,
	// this one included, inside (now-window, now].
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int, error)

	// Ping checks the store is usable
	Ping(ctx context.Context) error

	// Name identifies the store in logs and health checks
	Name() string
}

// RedisStore keeps one sorted set per key, scored by hit time in microseconds
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Hit trims expired entries, counts, adds this hit and refreshes the TTL
// in one MULTI/EXEC round trip.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (int, error) {
	key = keyPrefix + key
	cutoff := now.Add(-window).UnixMicro()

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		card = pipe.ZCard(ctx, key)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixMicro()),
			Member: fmt.Sprintf("%d-%s", now.UnixMicro(), uuid.NewString()),
		})
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rate limit pipeline: %w", err)
	}
	return int(card.Val()) + 1, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Name returns "redis"
func (s *RedisStore) Name() string {
	return "redis"
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
