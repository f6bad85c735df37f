package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jackyckma/baudagain/internal/model"
)

// DoorCache is a read-through cache of the active door-session snapshot,
// sitting in front of the Mongo repository. Entries expire on their own at
// the door timeout, so a hit is never a stale-but-expired session.
type DoorCache interface {
	Set(ctx context.Context, ds *model.DoorSession) error
	Get(ctx context.Context, userID, doorID string) (*model.DoorSession, error)
	Delete(ctx context.Context, userID, doorID string) error
}

type doorCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDoorCache creates a door cache whose entries live for the door timeout.
func NewDoorCache(client *redis.Client, ttl time.Duration) DoorCache {
	return &doorCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *doorCache) key(userID, doorID string) string {
	return fmt.Sprintf("door:%s:%s", userID, doorID)
}

func (c *doorCache) Set(ctx context.Context, ds *model.DoorSession) error {
	data, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(ds.UserID, ds.DoorID), data, c.ttl).Err()
}

func (c *doorCache) Get(ctx context.Context, userID, doorID string) (*model.DoorSession, error) {
	data, err := c.client.Get(ctx, c.key(userID, doorID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ds model.DoorSession
	if err := json.Unmarshal([]byte(data), &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *doorCache) Delete(ctx context.Context, userID, doorID string) error {
	return c.client.Del(ctx, c.key(userID, doorID)).Err()
}
