package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// PostCache is a redis-backed read cache for post listings and single
// posts. A nil *PostCache is a valid always-miss cache, so the handlers
// work unchanged when redis is not configured.
type PostCache struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config, ttl time.Duration) *PostCache {
	if cfg.Addr == "" {
		return nil
	}

	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &PostCache{rdb: rdb, ttl: ttl}
}

func (c *PostCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *PostCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

// Get unmarshals a cached value into dest; ok is false on a miss. Cache
// errors degrade to misses so redis outages never fail reads.
func (c *PostCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()

	if err != nil {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}

	return true
}

func (c *PostCache) Set(ctx context.Context, key string, val interface{}) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(val)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

const versionKey = "posts:ver"

// Version returns the current cache generation for list keys.
func (c *PostCache) Version(ctx context.Context) int64 {
	if c == nil {
		return 0
	}

	v, err := c.rdb.Get(ctx, versionKey).Int64()

	if err != nil && !errors.Is(err, redis.Nil) {
		return 0
	}

	return v
}

// Invalidate bumps the list generation and drops the single-post entry.
// All previously cached pages become unreachable keys and expire by TTL.
func (c *PostCache) Invalidate(ctx context.Context, postID string) {
	if c == nil {
		return
	}

	_ = c.rdb.Incr(ctx, versionKey).Err()

	if postID != "" {
		_ = c.rdb.Del(ctx, PostKey(postID)).Err()
	}
}

func ListKey(version int64, page, limit int) string {
	return "posts:list:v" + strconv.FormatInt(version, 10) +
		":page=" + strconv.Itoa(page) +
		":limit=" + strconv.Itoa(limit)
}

func PostKey(id string) string {
	return "posts:item:" + id
}
