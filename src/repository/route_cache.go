package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ascension-ai/backend/src/service"
	"github.com/go-redis/redis/v8"
)

// RouteCacheRepository caches hostname → funnel resolutions in redis so the
// routing hot path skips the database on repeat hits. Entries are invalidated
// on domain create/verify/delete and expire on their own after the TTL.
type RouteCacheRepository struct {
	redis     *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRouteCacheRepository(rdb *redis.Client, keyPrefix string, ttl time.Duration) *RouteCacheRepository {
	return &RouteCacheRepository{
		redis:     rdb,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (r *RouteCacheRepository) key(host string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, host)
}

// Get returns the cached route for host, or nil on a miss.
func (r *RouteCacheRepository) Get(ctx context.Context, host string) (*service.CachedRoute, error) {
	data, err := r.redis.Get(ctx, r.key(host)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var route service.CachedRoute
	if err := json.Unmarshal([]byte(data), &route); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached route: %w", err)
	}
	return &route, nil
}

func (r *RouteCacheRepository) Set(ctx context.Context, host string, route *service.CachedRoute) error {
	data, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("failed to marshal route: %w", err)
	}
	return r.redis.Set(ctx, r.key(host), data, r.ttl).Err()
}

func (r *RouteCacheRepository) Invalidate(ctx context.Context, host string) error {
	return r.redis.Del(ctx, r.key(host)).Err()
}
