package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchSession is a shared-viewing context binding one video to a host and
// zero or more joined participants. IsPlaying and PlaybackTime hold the
// last-known authoritative playback state, used to bootstrap late joiners.
type WatchSession struct {
	ID           uuid.UUID `json:"id"`
	VideoID      string    `json:"video_id"`
	HostID       uuid.UUID `json:"host_id"`
	IsPlaying    bool      `json:"is_playing"`
	PlaybackTime float64   `json:"playback_time"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionParticipant links a user to a watch session. The (session, user)
// pair is unique; joining twice never creates a duplicate row.
type SessionParticipant struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}
