package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"smabackend/internal/model"
)

// presenceTTL bounds how long a stale "online" entry can linger if a socket
// dies without a clean disconnect.
const presenceTTL = 2 * time.Hour

// PresenceCache tracks who is connected to the chat layer. It is the only
// state the live-update path touches; nothing here feeds back into the
// attendance transactions.
type PresenceCache interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*model.Presence, error)
}

type presenceCache struct {
	client *redis.Client
}

func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
	}
}

func (c *presenceCache) set(ctx context.Context, userID string, online bool) error {
	data, err := json.Marshal(&model.Presence{
		IsOnline: online,
		LastSeen: time.Now(),
	})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "presence:"+userID, data, presenceTTL).Err()
}

func (c *presenceCache) SetOnline(ctx context.Context, userID string) error {
	return c.set(ctx, userID, true)
}

func (c *presenceCache) SetOffline(ctx context.Context, userID string) error {
	return c.set(ctx, userID, false)
}

// Get returns an offline presence for users never seen, not an error.
func (c *presenceCache) Get(ctx context.Context, userID string) (*model.Presence, error) {
	data, err := c.client.Get(ctx, "presence:"+userID).Result()
	if err == redis.Nil {
		return &model.Presence{}, nil
	}
	if err != nil {
		return nil, err
	}
	var p model.Presence
	err = json.Unmarshal([]byte(data), &p)
	return &p, err
}
