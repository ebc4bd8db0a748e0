// Package cache provides a Redis snapshot cache for entity reads. The open
// read path is the hot path (dashboards poll entity details); mutations are
// rare by comparison. Entries are written only after a mutation commits, so a
// cached snapshot is always a state the ledger actually held.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fiscus/internal/ledger/models"
	"fiscus/pkg/domain"
	"fiscus/pkg/platform/sentinel"
)

const keyPrefix = "fiscus:entity:"

type EntityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *EntityCache {
	return &EntityCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot or sentinel.ErrNotFound on a miss. Redis
// failures are reported as errors so callers can fall through to the store.
func (c *EntityCache) Get(ctx context.Context, id domain.EntityID) (*models.Entity, error) {
	payload, err := c.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	var entity models.Entity
	if err := json.Unmarshal(payload, &entity); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &entity, nil
}

// Set stores a committed snapshot with the configured TTL.
func (c *EntityCache) Set(ctx context.Context, entity *models.Entity) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+entity.ID.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot after a mutation touches the entity.
func (c *EntityCache) Invalidate(ctx context.Context, id domain.EntityID) error {
	if err := c.client.Del(ctx, keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
