package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/internal/playback"
)

type fakeBus struct {
	mu        sync.Mutex
	published []fakeMessage
	subs      map[string]func(event string, payload []byte)
	cancelled []string
}

type fakeMessage struct {
	Channel string
	Event   string
	Payload []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string]func(string, []byte))}
}

func (b *fakeBus) Publish(_ context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.published = append(b.published, fakeMessage{Channel: channel, Event: event, Payload: data})
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, channel string, handler func(string, []byte)) (func(), error) {
	b.mu.Lock()
	b.subs[channel] = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.cancelled = append(b.cancelled, channel)
		b.mu.Unlock()
	}, nil
}

func (b *fakeBus) deliver(channel, event string, payload []byte) {
	b.mu.Lock()
	handler := b.subs[channel]
	b.mu.Unlock()
	if handler != nil {
		handler(event, payload)
	}
}

type fakeStore struct {
	mu      sync.Mutex
	session *models.WatchSession
	updates []playbackUpdate
}

type playbackUpdate struct {
	SessionID    uuid.UUID
	IsPlaying    bool
	PlaybackTime float64
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.WatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session, nil
}

func (s *fakeStore) UpdatePlayback(_ context.Context, id uuid.UUID, isPlaying bool, playbackTime float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, playbackUpdate{SessionID: id, IsPlaying: isPlaying, PlaybackTime: playbackTime})
	return nil
}

func newTestClient(sessionID uuid.UUID) *Client {
	return &Client{
		ID:        uuid.New().String(),
		UserID:    uuid.New(),
		SessionID: sessionID,
		send:      make(chan WSMessage, 16),
	}
}

func TestRegisterSubscribesOncePerRoom(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(zap.NewNop(), bus, nil, nil)

	sessionID := uuid.New()
	c1 := newTestClient(sessionID)
	c2 := newTestClient(sessionID)
	hub.Register(c1)
	hub.Register(c2)

	assert.Equal(t, 2, hub.RoomCount(sessionID))
	bus.mu.Lock()
	_, hasRoomSub := bus.subs[SessionChannel(sessionID)]
	bus.mu.Unlock()
	assert.True(t, hasRoomSub)
}

func TestUnregisterLastClientCancelsAndNotifies(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(zap.NewNop(), bus, nil, nil)

	var emptied []uuid.UUID
	hub.SetRoomEmptyHandler(func(id uuid.UUID) { emptied = append(emptied, id) })

	sessionID := uuid.New()
	c1 := newTestClient(sessionID)
	c2 := newTestClient(sessionID)
	hub.Register(c1)
	hub.Register(c2)

	hub.Unregister(c1)
	assert.Empty(t, emptied, "room still has a client")

	hub.Unregister(c2)
	require.Equal(t, []uuid.UUID{sessionID}, emptied)
	assert.Zero(t, hub.RoomCount(sessionID))
	bus.mu.Lock()
	cancelled := append([]string(nil), bus.cancelled...)
	bus.mu.Unlock()
	assert.Contains(t, cancelled, SessionChannel(sessionID))
}

func TestStateChangeSnapshotsAndPublishes(t *testing.T) {
	bus := newFakeBus()
	store := &fakeStore{}
	hub := NewHub(zap.NewNop(), bus, store, nil)

	sessionID := uuid.New()
	c := newTestClient(sessionID)
	hub.Register(c)

	evt := playback.Event{State: playback.StatePlaying, Time: 88.5, VideoID: "abc", SenderID: c.UserID.String()}
	raw, _ := json.Marshal(evt)
	hub.HandleSessionEvent(context.Background(), c, playback.EventVideoStateChange, raw)

	require.Len(t, store.updates, 1)
	assert.Equal(t, sessionID, store.updates[0].SessionID)
	assert.True(t, store.updates[0].IsPlaying)
	assert.Equal(t, 88.5, store.updates[0].PlaybackTime)

	bus.mu.Lock()
	published := append([]fakeMessage(nil), bus.published...)
	bus.mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, SessionChannel(sessionID), published[0].Channel)
	assert.Equal(t, playback.EventVideoStateChange, published[0].Event)

	// Local fan-out happens via the subscription callback, never directly:
	// the Redis round-trip delivers exactly once per instance.
	assert.Empty(t, c.send)
}

func TestStateRequestAnsweredFromSnapshot(t *testing.T) {
	bus := newFakeBus()
	sessionID := uuid.New()
	store := &fakeStore{session: &models.WatchSession{
		ID:           sessionID,
		VideoID:      "abc",
		IsPlaying:    true,
		PlaybackTime: 120.25,
	}}
	hub := NewHub(zap.NewNop(), bus, store, nil)

	c := newTestClient(sessionID)
	hub.Register(c)

	req := playback.StateRequest{VideoID: "abc", RequesterID: c.UserID.String()}
	raw, _ := json.Marshal(req)
	hub.HandleSessionEvent(context.Background(), c, playback.EventRequestVideoState, raw)

	// The request is forwarded to peers...
	bus.mu.Lock()
	published := append([]fakeMessage(nil), bus.published...)
	bus.mu.Unlock()
	require.Len(t, published, 1)
	assert.Equal(t, playback.EventRequestVideoState, published[0].Event)

	// ...and the stored snapshot goes straight back to the requester.
	select {
	case msg := <-c.send:
		assert.Equal(t, playback.EventVideoStateChange, msg.Event)
		var evt playback.Event
		require.NoError(t, json.Unmarshal(msg.Data, &evt))
		assert.Equal(t, SnapshotSenderID, evt.SenderID)
		assert.Equal(t, playback.StatePlaying, evt.State)
		assert.Equal(t, 120.25, evt.Time)
	default:
		t.Fatal("expected a snapshot reply on the requester's send channel")
	}
}

func TestSubscriptionDeliveryFansOutToRoom(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(zap.NewNop(), bus, nil, nil)

	sessionID := uuid.New()
	c1 := newTestClient(sessionID)
	c2 := newTestClient(sessionID)
	hub.Register(c1)
	hub.Register(c2)

	evt := playback.Event{State: playback.StatePaused, Time: 10, SenderID: c1.UserID.String()}
	raw, _ := json.Marshal(evt)
	bus.deliver(SessionChannel(sessionID), playback.EventVideoStateChange, raw)

	assert.Len(t, c1.send, 1, "the sender's engine drops its own echo itself")
	assert.Len(t, c2.send, 1)
}

func TestUserChannelDeliversInvites(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(zap.NewNop(), bus, nil, nil)

	c := newTestClient(uuid.Nil) // connected without a session room
	hub.Register(c)

	bus.deliver(UserChannel(c.UserID), "watch_invite", []byte(`{"video_id":"abc"}`))

	select {
	case msg := <-c.send:
		assert.Equal(t, "watch_invite", msg.Event)
	default:
		t.Fatal("expected an invite on the user channel")
	}
}
