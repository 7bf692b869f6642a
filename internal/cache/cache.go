package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil *Client is valid and behaves like an always-empty cache.
type Client struct {
	client *redis.Client
	log    *zap.Logger
}

// New creates a new Redis client.
func New(addr, password string, db int, log *zap.Logger) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return NewWithClient(redis.NewClient(opts), log)
}

// NewWithClient wraps an existing redis client.
func NewWithClient(rdb *redis.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{client: rdb, log: log}
}

// Ping reports whether redis is reachable. Unlike the other methods it does not swallow errors.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.log.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Debug("cache delete failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Incr bumps an integer counter and returns its new value, or 0 if redis is unavailable.
// A counter created by this call expires after ttl.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.log.Debug("cache incr failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	if n == 1 && ttl > 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			c.log.Debug("cache expire failed", zap.String("key", key), zap.Error(err))
		}
	}
	return n
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
