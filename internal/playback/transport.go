package playback

import "context"

// Transport is the realtime pub/sub capability the engine publishes and
// subscribes through. Delivery is best-effort: no acknowledgment, no retry,
// no cross-sender ordering. A dropped event leaves a client momentarily
// stale until its next received event corrects it.
type Transport interface {
	Publish(ctx context.Context, channel, event string, payload any) error
	Subscribe(ctx context.Context, channel string, handler func(event string, payload []byte)) (cancel func(), err error)
}
