package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs per cached shape
const (
	TTLPost    = 5 * time.Minute // tier-resolved post views
	TTLModules = 5 * time.Minute // resolved module lists
)

// Cache key prefixes
const (
	PrefixPost    = "post:"
	PrefixModules = "modules:"
)

// Service is the Redis cache surface. Resolved post views are keyed
// by post and tier; a mutation at any tier invalidates all tiers of
// that post, so staleness never crosses a commit.
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	GetPost(ctx context.Context, postID uint64, tier string, dest interface{}) error
	SetPost(ctx context.Context, postID uint64, tier string, data interface{}) error
	GetModules(ctx context.Context, postID uint64, tier string, dest interface{}) error
	SetModules(ctx context.Context, postID uint64, tier string, data interface{}) error
	InvalidatePost(ctx context.Context, postID uint64) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis-backed implementation
type redisCache struct {
	client *redis.Client
}

// NewService creates a cache service. A nil client degrades every
// operation to a no-op so the API keeps serving without Redis.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) postKey(postID uint64, tier string) string {
	return fmt.Sprintf("%s%d:%s", PrefixPost, postID, tier)
}

func (c *redisCache) modulesKey(postID uint64, tier string) string {
	return fmt.Sprintf("%s%d:%s", PrefixModules, postID, tier)
}

func (c *redisCache) GetPost(ctx context.Context, postID uint64, tier string, dest interface{}) error {
	return c.Get(ctx, c.postKey(postID, tier), dest)
}

func (c *redisCache) SetPost(ctx context.Context, postID uint64, tier string, data interface{}) error {
	return c.Set(ctx, c.postKey(postID, tier), data, TTLPost)
}

func (c *redisCache) GetModules(ctx context.Context, postID uint64, tier string, dest interface{}) error {
	return c.Get(ctx, c.modulesKey(postID, tier), dest)
}

func (c *redisCache) SetModules(ctx context.Context, postID uint64, tier string, data interface{}) error {
	return c.Set(ctx, c.modulesKey(postID, tier), data, TTLModules)
}

// InvalidatePost drops every cached tier of a post
func (c *redisCache) InvalidatePost(ctx context.Context, postID uint64) error {
	if c.client == nil {
		return nil
	}
	if err := c.deleteByPattern(ctx, fmt.Sprintf("%s%d:*", PrefixPost, postID)); err != nil {
		return err
	}
	return c.deleteByPattern(ctx, fmt.Sprintf("%s%d:*", PrefixModules, postID))
}

func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
