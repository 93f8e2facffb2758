package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallstore/pos/internal/core/domain"
)

const (
	snapshotKeyPrefix = "item:"
	snapshotTTL       = 5 * time.Second
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetSnapshot(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	val, err := r.client.Get(ctx, snapshotKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap domain.ItemSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		// Unreadable entry counts as a miss; it will age out via TTL.
		return nil, nil
	}
	return &snap, nil
}

func (r *RedisAdapter) SetSnapshot(ctx context.Context, snap *domain.ItemSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, snapshotKeyPrefix+snap.Name, b, snapshotTTL).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) ClearIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
