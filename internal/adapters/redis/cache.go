package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// RoomCache holds JSON-encoded room documents under room:<id>. A cache
// without a client misses on every read and ignores writes.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomCache(client *redis.Client, ttl time.Duration) *RoomCache {
	return &RoomCache{client: client, ttl: ttl}
}

func roomKey(id string) string {
	return "room:" + id
}

// Get decodes the cached room into dst and reports whether it was present.
func (c *RoomCache) Get(ctx context.Context, id string, dst interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	val, err := c.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "get cached room")
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, errors.Wrap(err, "decode cached room")
	}
	return true, nil
}

func (c *RoomCache) Set(ctx context.Context, id string, v interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode room")
	}
	return c.client.Set(ctx, roomKey(id), data, c.ttl).Err()
}

func (c *RoomCache) Invalidate(ctx context.Context, id string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, roomKey(id)).Err()
}
