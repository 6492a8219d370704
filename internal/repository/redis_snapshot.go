package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "seatmap"

// RedisSnapshotCache stores rendered seat map snapshots. Keys carry the seat map
// revision, so a mutation or a fresh materialization makes older entries
// unreachable and only the TTL reclaims them.
type RedisSnapshotCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisSnapshotCache(client redis.UniversalClient, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key domain.ShowtimeKey, revision string) ([]byte, error) {
	data, err := c.client.Get(ctx, snapshotKey(key, revision)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSnapshotCacheMiss
		}

		return nil, err
	}

	return data, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key domain.ShowtimeKey, revision string, data []byte) error {
	return c.client.Set(ctx, snapshotKey(key, revision), data, c.ttl).Err()
}

func snapshotKey(key domain.ShowtimeKey, revision string) string {
	return fmt.Sprintf("%s:%s:%s", snapshotKeyPrefix, key, revision)
}
