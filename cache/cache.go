// Package cache keeps rendered product details in Redis. A nil *Cache is
// valid and caches nothing.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at addr and checks the connection.
func New(ctx context.Context, addr, password string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("redis connected", "addr", addr)
	return &Cache{client: client, ttl: ttl}, nil
}

// ProductKey is the key under which a product detail is stored.
func ProductKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached value and whether it was found. Lookup errors
// count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

func generationKey(key string) string {
	return key + ":gen"
}

// Generation returns the invalidation counter of key. Read it before
// loading the value that will be passed to Set.
func (c *Cache) Generation(ctx context.Context, key string) int64 {
	if c == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, generationKey(key)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("cache generation failed", "key", key, "error", err)
	}
	return gen
}

var errStale = errors.New("cache: value is stale")

// Set stores data under key only while key is still at generation gen,
// so a value loaded before a concurrent Delete is never written back.
func (c *Cache) Set(ctx context.Context, key string, gen int64, data []byte) {
	if c == nil {
		return
	}
	genKey := generationKey(key)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
	default:
		slog.Warn("cache set failed", "key", key, "error", err)
	}
}

// Delete drops keys and advances their generations. Used after every
// write that changes a product view.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		return nil
	})
	if err != nil {
		slog.Warn("cache delete failed", "keys", keys, "error", err)
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
