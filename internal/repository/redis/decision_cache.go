package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luiso2/sleep-admin-service/internal/core/domain"
	"github.com/luiso2/sleep-admin-service/internal/core/port"
)

// DecisionCache caches batch permission resolutions in Redis. Keys embed a
// global generation counter and a per-user version counter; invalidation
// bumps a counter so stale grants are never read again and expire by TTL.
type DecisionCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDecisionCache constructs a cache with the given key prefix and TTL.
func NewDecisionCache(client *redis.Client, prefix string, ttl time.Duration) *DecisionCache {
	if prefix == "" {
		prefix = "acl"
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &DecisionCache{client: client, prefix: prefix, ttl: ttl}
}

// Lookup returns cached grants for the identity, if present.
func (c *DecisionCache) Lookup(ctx context.Context, userID, role string) ([]domain.ResolvedPermission, bool, error) {
	key, err := c.grantsKey(ctx, userID, role)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get grants: %w", err)
	}

	var grants []domain.ResolvedPermission
	if err := json.Unmarshal([]byte(raw), &grants); err != nil {
		return nil, false, fmt.Errorf("unmarshal grants: %w", err)
	}

	return grants, true, nil
}

// Store caches the identity's grants under the current versions.
func (c *DecisionCache) Store(ctx context.Context, userID, role string, grants []domain.ResolvedPermission) error {
	key, err := c.grantsKey(ctx, userID, role)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(grants)
	if err != nil {
		return fmt.Errorf("marshal grants: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set grants: %w", err)
	}

	return nil
}

// InvalidateUser bumps the user's version counter, orphaning cached grants.
func (c *DecisionCache) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.client.Incr(ctx, c.userVersionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis incr user version: %w", err)
	}
	return nil
}

// InvalidateAll bumps the global generation, orphaning every cached grant.
func (c *DecisionCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}

func (c *DecisionCache) grantsKey(ctx context.Context, userID, role string) (string, error) {
	gen, err := c.counter(ctx, c.generationKey())
	if err != nil {
		return "", err
	}
	ver, err := c.counter(ctx, c.userVersionKey(userID))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:grants:g%d:v%d:%s:%s", c.prefix, gen, ver, userID, role), nil
}

func (c *DecisionCache) counter(ctx context.Context, key string) (int64, error) {
	val, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get counter: %w", err)
	}
	return val, nil
}

func (c *DecisionCache) generationKey() string {
	return c.prefix + ":generation"
}

func (c *DecisionCache) userVersionKey(userID string) string {
	return fmt.Sprintf("%s:user_version:%s", c.prefix, userID)
}

var _ port.DecisionCache = (*DecisionCache)(nil)
