package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/internal/playback"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// SnapshotSenderID marks server-synthesized state events sent to late
// joiners from the stored session snapshot. It never collides with a user
// id, so no client discards it as its own echo.
const SnapshotSenderID = "session"

// SnapshotStore persists the last-known authoritative playback state of a
// session (last-writer-wins) and serves it to late joiners.
type SnapshotStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WatchSession, error)
	UpdatePlayback(ctx context.Context, id uuid.UUID, isPlaying bool, playbackTime float64) error
}

// RoomEmptyHandler is called when the last local client leaves a session
// room (e.g. to schedule session teardown after a grace period).
type RoomEmptyHandler func(sessionID uuid.UUID)

// Hub maintains session rooms and per-user channels of WebSocket clients
// and bridges them to the Redis transport for cross-instance broadcast.
// The hub is a forwarder: it never interprets playback events beyond
// snapshotting them.
type Hub struct {
	rooms    map[uuid.UUID]map[string]*Client
	users    map[uuid.UUID]map[string]*Client
	roomSubs map[uuid.UUID]func()
	userSubs map[uuid.UUID]func()
	mu       sync.RWMutex

	logger      *zap.Logger
	bus         Transport
	store       SnapshotStore
	presence    *RedisPresence
	onRoomEmpty RoomEmptyHandler
}

// NewHub creates a WebSocket hub. store and presence may be nil.
func NewHub(logger *zap.Logger, bus Transport, store SnapshotStore, presence *RedisPresence) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		users:    make(map[uuid.UUID]map[string]*Client),
		roomSubs: make(map[uuid.UUID]func()),
		userSubs: make(map[uuid.UUID]func()),
		logger:   logger,
		bus:      bus,
		store:    store,
		presence: presence,
	}
}

// SetRoomEmptyHandler sets the callback invoked when a session room empties.
func (h *Hub) SetRoomEmptyHandler(fn RoomEmptyHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRoomEmpty = fn
}

// Register adds a client to its session room (if any) and its user channel.
// The first client on a channel starts the Redis subscription for it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
		if h.bus != nil {
			userID := c.UserID
			cancel, err := h.bus.Subscribe(context.Background(), UserChannel(userID), func(event string, payload []byte) {
				h.broadcastToUser(userID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.userSubs[userID] = cancel
			} else {
				h.logger.Warn("user channel subscribe failed", zap.Error(err), zap.String("user_id", userID.String()))
			}
		}
	}
	h.users[c.UserID][c.ID] = c

	if c.SessionID != uuid.Nil {
		if h.rooms[c.SessionID] == nil {
			h.rooms[c.SessionID] = make(map[string]*Client)
			if h.bus != nil {
				sessionID := c.SessionID
				cancel, err := h.bus.Subscribe(context.Background(), SessionChannel(sessionID), func(event string, payload []byte) {
					h.BroadcastToSession(sessionID, event, json.RawMessage(payload))
				})
				if err == nil {
					h.roomSubs[sessionID] = cancel
				} else {
					h.logger.Warn("session channel subscribe failed", zap.Error(err), zap.String("session_id", sessionID.String()))
				}
			}
		}
		h.rooms[c.SessionID][c.ID] = c
	}
	h.mu.Unlock()

	if c.SessionID != uuid.Nil && h.presence != nil {
		if err := h.presence.Join(context.Background(), c.SessionID); err != nil {
			h.logger.Warn("presence join failed", zap.Error(err))
		}
	}

	h.logger.Debug("client connected",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.UserID.String()),
		zap.String("session_id", c.SessionID.String()))
}

// Unregister removes a client. The last client of a room or user channel
// cancels the Redis subscription; an emptied room triggers the
// RoomEmptyHandler.
func (h *Hub) Unregister(c *Client) {
	var emptiedRoom bool
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.userSubs[c.UserID]; ok {
				cancel()
				delete(h.userSubs, c.UserID)
			}
		}
	}
	if c.SessionID != uuid.Nil {
		if m, ok := h.rooms[c.SessionID]; ok {
			delete(m, c.ID)
			if len(m) == 0 {
				delete(h.rooms, c.SessionID)
				if cancel, ok := h.roomSubs[c.SessionID]; ok {
					cancel()
					delete(h.roomSubs, c.SessionID)
				}
				emptiedRoom = true
			}
		}
	}
	onEmpty := h.onRoomEmpty
	h.mu.Unlock()

	if c.SessionID != uuid.Nil && h.presence != nil {
		if err := h.presence.Leave(context.Background(), c.SessionID); err != nil {
			h.logger.Warn("presence leave failed", zap.Error(err))
		}
	}
	if emptiedRoom && onEmpty != nil {
		onEmpty(c.SessionID)
	}
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// BroadcastToSession sends a message to all local clients in a session room.
func (h *Hub) BroadcastToSession(sessionID uuid.UUID, event string, payload interface{}) {
	msg := newWSMessage(event, payload)

	h.mu.RLock()
	clients := h.rooms[sessionID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

func (h *Hub) broadcastToUser(userID uuid.UUID, event string, payload interface{}) {
	msg := newWSMessage(event, payload)

	h.mu.RLock()
	clients := h.users[userID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// RoomCount returns the number of locally connected clients in a session room.
func (h *Hub) RoomCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// HandleSessionEvent processes a playback event received from a connected
// client. State changes are snapshotted and published Redis-only, so the
// subscription callback fans out exactly once per instance; state requests
// are forwarded to peers and additionally answered from the stored
// snapshot when one exists.
func (h *Hub) HandleSessionEvent(ctx context.Context, c *Client, event string, data json.RawMessage) {
	if c.SessionID == uuid.Nil {
		return
	}
	switch event {
	case playback.EventVideoStateChange:
		var evt playback.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			h.logger.Debug("malformed state change", zap.Error(err))
			return
		}
		if h.store != nil {
			if err := h.store.UpdatePlayback(ctx, c.SessionID, evt.State == playback.StatePlaying, evt.Time); err != nil {
				h.logger.Warn("snapshot update failed", zap.Error(err), zap.String("session_id", c.SessionID.String()))
			}
		}
		if h.bus != nil {
			if err := h.bus.Publish(ctx, SessionChannel(c.SessionID), event, json.RawMessage(data)); err != nil {
				h.logger.Warn("publish failed", zap.Error(err))
			}
		} else {
			h.BroadcastToSession(c.SessionID, event, json.RawMessage(data))
		}
	case playback.EventRequestVideoState:
		if h.bus != nil {
			if err := h.bus.Publish(ctx, SessionChannel(c.SessionID), event, json.RawMessage(data)); err != nil {
				h.logger.Warn("publish failed", zap.Error(err))
			}
		} else {
			h.BroadcastToSession(c.SessionID, event, json.RawMessage(data))
		}
		h.answerFromSnapshot(ctx, c)
	}
}

// answerFromSnapshot sends the stored session state directly to the
// requesting client. Peers may answer too; the requester reconciles toward
// whichever reply it processes last.
func (h *Hub) answerFromSnapshot(ctx context.Context, c *Client) {
	if h.store == nil {
		return
	}
	session, err := h.store.GetByID(ctx, c.SessionID)
	if err != nil || session == nil {
		return
	}
	state := playback.StatePaused
	if session.IsPlaying {
		state = playback.StatePlaying
	}
	evt := playback.Event{
		State:     state,
		Time:      session.PlaybackTime,
		VideoID:   session.VideoID,
		Timestamp: time.Now().UnixMilli(),
		SenderID:  SnapshotSenderID,
	}
	msg := newWSMessage(playback.EventVideoStateChange, evt)
	select {
	case c.send <- msg:
	default:
	}
}

func newWSMessage(event string, payload interface{}) WSMessage {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	return WSMessage{Event: event, Data: data}
}
