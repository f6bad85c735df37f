package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "online"

// PresenceCache handles the Redis ZSET backing the who's-online list.
// Members are user handles scored by last-seen time; listing cuts off
// members older than the session idle timeout.
type PresenceCache interface {
	Touch(ctx context.Context, handle string, at time.Time) error
	Remove(ctx context.Context, handle string) error
	ListOnline(ctx context.Context, notBefore time.Time) ([]string, error)
}

type presenceCache struct {
	client *redis.Client
}

func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
	}
}

func (c *presenceCache) Touch(ctx context.Context, handle string, at time.Time) error {
	return c.client.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: handle,
	}).Err()
}

func (c *presenceCache) Remove(ctx context.Context, handle string) error {
	return c.client.ZRem(ctx, presenceKey, handle).Err()
}

func (c *presenceCache) ListOnline(ctx context.Context, notBefore time.Time) ([]string, error) {
	return c.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(notBefore.Unix(), 10),
		Max: "+inf",
	}).Result()
}
