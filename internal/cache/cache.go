// Package cache stores competitor-oracle results so a discovery batch can be
// re-run without repeating extractions that already succeeded.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AI-Template-SDK/senso-visibility/internal/models"
)

const keyPrefix = "competitors:v1:"

// DefaultTTL bounds how long extractions are reused.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is the competitor-list cache. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, names []string) error
	Close() error
}

// Key fingerprints one extraction: the oracle, the target business and the
// response text all change the answer.
func Key(oracle string, profile models.BusinessProfile, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s",
		oracle,
		strings.ToLower(profile.Name),
		strings.ToLower(strings.Join(profile.Aliases, ",")),
		text)
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// RedisCache implements Cache using go-redis/v9.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var names []string
	if err := json.Unmarshal(val, &names); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached names: %w", err)
	}
	return names, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, names []string) error {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
