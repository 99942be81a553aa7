package blobstore

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the shared, cross-process BlobStore backend.
// Grounded on original_source's kvs.rs (Redis + pipelined multi-get/
// multi-put) and on the pack's annel0-mmo-game region manager, which
// uses the same github.com/go-redis/redis/v8 client for a similar
// spatially-partitioned world-state store.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient dials addr and returns a ready-to-use Client.
func NewRedisClient(addr string) *RedisClient {
	return &RedisClient{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (c *RedisClient) Put(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return &ErrTransport{Cause: err}
	}
	return nil
}

func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, &ErrNotFound{Key: key}
	}
	if err != nil {
		return nil, &ErrTransport{Cause: err}
	}
	return b, nil
}

// PutMany issues one pipelined MSET-equivalent round trip.
func (c *RedisClient) PutMany(ctx context.Context, items map[string][]byte) error {
	if len(items) == 0 {
		return nil
	}
	pipe := c.rdb.Pipeline()
	for k, v := range items {
		pipe.Set(ctx, k, v, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &ErrTransport{Cause: err}
	}
	return nil
}

// GetMany issues one pipelined MGET-equivalent round trip. Keys with
// no value are simply absent from the result, per the Client contract.
func (c *RedisClient) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, &ErrTransport{Cause: err}
	}

	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		switch err {
		case nil:
			out[keys[i]] = b
		case redis.Nil:
			// not found: simply omitted.
		default:
			return nil, &ErrTransport{Cause: err}
		}
	}
	return out, nil
}

func (c *RedisClient) Close() error { return c.rdb.Close() }
