package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:42", ProductKey(42))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	assert.Zero(t, c.Generation(ctx, ProductKey(1)))
	c.Set(ctx, ProductKey(1), 0, []byte("{}"))
	data, ok := c.Get(ctx, ProductKey(1))
	assert.False(t, ok)
	assert.Nil(t, data)
	c.Delete(ctx, ProductKey(1))
	assert.NoError(t, c.Close())
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	c, err := New(ctx, "127.0.0.1:1", "", time.Minute)
	require.Error(t, err)
	assert.Nil(t, c)
}

func newRedisCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := New(ctx, addr, os.Getenv("REDIS_PASSWORD"), time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetSkipsValueLoadedBeforeDelete(t *testing.T) {
	c := newRedisCache(t)
	ctx := context.Background()
	key := ProductKey(uint(time.Now().UnixNano() % 1_000_000_000))
	t.Cleanup(func() { c.client.Del(ctx, key, generationKey(key)) })

	gen := c.Generation(ctx, key)
	c.Delete(ctx, key)
	c.Set(ctx, key, gen, []byte(`{"name":"old"}`))
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	gen = c.Generation(ctx, key)
	assert.Equal(t, int64(1), gen)
	c.Set(ctx, key, gen, []byte(`{"name":"new"}`))
	data, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"new"}`, string(data))

	c.Delete(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
}
