package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 30 * 24 * time.Hour

type Redis struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

// NewRedis stores values with baseTTL plus up to five minutes of jitter.
// A zero baseTTL keeps values for thirty days.
func NewRedis(client redis.UniversalClient, baseTTL time.Duration) *Redis {
	if baseTTL <= 0 {
		baseTTL = defaultRedisTTL
	}
	return &Redis{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *Redis) Read(ctx context.Context, key string) (string, bool, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: redis get failed: %v", ErrUnavailable, err)
	}
	return data, true, nil
}

func (r *Redis) Write(ctx context.Context, key, value string) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set failed: %v", ErrUnavailable, err)
	}
	return nil
}

func redisKey(key string) string {
	return fmt.Sprintf("storage:%s", key)
}
