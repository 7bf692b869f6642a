package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNilClient_BehavesLikeEmptyCache(t *testing.T) {
	var c *Client
	ctx := context.Background()

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Zero(t, c.Incr(ctx, "n", time.Minute))
	assert.Error(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestUnreachableRedis_FailsSafe(t *testing.T) {
	// Nothing listens on port 1; every call must degrade to a cache miss.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewWithClient(rdb, nil)
	defer c.Close()
	ctx := context.Background()

	assert.Error(t, c.Ping(ctx))

	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Zero(t, c.Incr(ctx, "n", time.Minute))
}
