package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
)

// FriendRequest is a directed friendship edge. An accepted request makes
// both users friends of each other.
type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	RequesterID uuid.UUID           `json:"requester_id"`
	AddresseeID uuid.UUID           `json:"addressee_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Friend is the public view of a user in a friends list.
type Friend struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	ImageURL    *string   `json:"image_url,omitempty"`
}
