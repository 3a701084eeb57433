package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bottleup/searchworker/internal/domain"
)

// redisKeyPrefix namespaces worker keys so a shared Redis instance can
// serve other services without collisions.
const redisKeyPrefix = "bottleup:"

// RedisCacheBackend stores aggregates as JSON in Redis, so cached
// responses survive restarts and are shared across replicas.
type RedisCacheBackend struct {
	client *redis.Client
}

func NewRedisCacheBackend(client *redis.Client) *RedisCacheBackend {
	return &RedisCacheBackend{client: client}
}

func (r *RedisCacheBackend) Get(ctx context.Context, key string) (domain.AggregateResult, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AggregateResult{}, false, nil
	}
	if err != nil {
		return domain.AggregateResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	var result domain.AggregateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.AggregateResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (r *RedisCacheBackend) Set(ctx context.Context, key string, result domain.AggregateResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping verifies connectivity so startup can fall back to the in-memory
// backend when Redis is unreachable.
func (r *RedisCacheBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
