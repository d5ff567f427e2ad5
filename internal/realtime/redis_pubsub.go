package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Transport is the pub/sub capability shared by the hub, the invitation
// flow, and the sync engine: publish an event to a named channel, or
// subscribe a handler to one. Best-effort delivery, no acknowledgment.
type Transport interface {
	Publish(ctx context.Context, channel, event string, payload any) error
	Subscribe(ctx context.Context, channel string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// wireEnvelope is the message published to Redis.
type wireEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisTransport implements Transport on Redis pub/sub. One instance per
// process, passed explicitly to every component that needs the bus.
type RedisTransport struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTransport creates a Redis-backed transport.
func NewRedisTransport(client *redis.Client, logger *zap.Logger) *RedisTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTransport{client: client, logger: logger}
}

// Publish sends an event to a channel. Fire-and-forget: the caller gets the
// publish error but no delivery guarantee.
func (r *RedisTransport) Publish(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	body, err := json.Marshal(wireEnvelope{Event: event, Data: data, At: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, channel, body).Err()
}

// Subscribe attaches handler to a channel and returns a cancel function to
// stop the subscription.
func (r *RedisTransport) Subscribe(ctx context.Context, channel string, handler func(event string, payload []byte)) (cancel func(), err error) {
	subCtx, cancelCtx := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(subCtx, channel)
	if _, err = pubsub.Receive(subCtx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env wireEnvelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					r.logger.Debug("malformed bus message", zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(env.Event, env.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
