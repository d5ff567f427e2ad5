package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:session:"

// presenceTTL caps how long a counter can outlive its room if decrements
// are lost (e.g. an instance dies without unregistering its clients).
const presenceTTL = 24 * time.Hour

func presenceKey(sessionID uuid.UUID) string {
	return presenceKeyPrefix + sessionID.String()
}

// RedisPresence tracks how many clients are connected to each session room
// across all instances.
type RedisPresence struct {
	client *redis.Client
}

// NewRedisPresence creates a Redis-backed presence counter.
func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

// Join increments the room counter.
func (p *RedisPresence) Join(ctx context.Context, sessionID uuid.UUID) error {
	key := presenceKey(sessionID)
	if err := p.client.Incr(ctx, key).Err(); err != nil {
		return err
	}
	return p.client.Expire(ctx, key, presenceTTL).Err()
}

// Leave decrements the room counter and removes it at zero.
func (p *RedisPresence) Leave(ctx context.Context, sessionID uuid.UUID) error {
	n, err := p.client.Decr(ctx, presenceKey(sessionID)).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		return p.client.Del(ctx, presenceKey(sessionID)).Err()
	}
	return nil
}

// Count returns the number of connected clients across all instances.
func (p *RedisPresence) Count(ctx context.Context, sessionID uuid.UUID) (int, error) {
	n, err := p.client.Get(ctx, presenceKey(sessionID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
