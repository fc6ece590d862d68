package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const prefixCache = "zh:"

// RedisCache implements Cache on top of redis
type RedisCache struct {
	db *redis.Client
}

// Get value from redis
func (c *RedisCache) Get(ctx context.Context, key string, dst any) error {
	data, err := c.db.Get(ctx, prefixCache+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("fetching %s: %w", key, err)
	}
	if jerr := json.Unmarshal([]byte(data), dst); jerr != nil {
		return fmt.Errorf("unmarshal %s: %w", key, jerr)
	}
	return nil
}

// Set value to redis, zero ttl means no expiration
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jdata, jerr := json.Marshal(value)
	if jerr != nil {
		return fmt.Errorf("marshal %s: %w", key, jerr)
	}
	if err := c.db.Set(ctx, prefixCache+key, string(jdata), ttl).Err(); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// Close redis connection
func (c *RedisCache) Close() error {
	return c.db.Close()
}

// NewRedisCache creates RedisCache with given url
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{db: rdb}, nil
}
