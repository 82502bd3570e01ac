package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kitapunya/expense-backend/internal/collections/domain"
)

const collectionKeyPrefix = "expense:collection:" // expense:collection:{identity}

// Redis shares the cache between API replicas. Entries expire through the key
// TTL, so no sweep is needed.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) key(identity string) string {
	return collectionKeyPrefix + identity
}

func (r *Redis) Get(ctx context.Context, identity string) (domain.Collection, bool, error) {
	data, err := r.client.Get(ctx, r.key(identity)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Collection{}, false, nil
	}
	if err != nil {
		return domain.Collection{}, false, fmt.Errorf("failed to get cached collection: %w", err)
	}

	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Collection{}, false, fmt.Errorf("failed to unmarshal cached collection: %w", err)
	}
	return c, true, nil
}

func (r *Redis) Set(ctx context.Context, identity string, c domain.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}
	if err := r.client.Set(ctx, r.key(identity), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache collection: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, identity string) error {
	if err := r.client.Del(ctx, r.key(identity)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached collection: %w", err)
	}
	return nil
}
