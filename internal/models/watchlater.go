package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchLaterItem is a video saved by a user for later viewing.
type WatchLaterItem struct {
	UserID  uuid.UUID `json:"user_id"`
	VideoID string    `json:"video_id"`
	AddedAt time.Time `json:"added_at"`
}
