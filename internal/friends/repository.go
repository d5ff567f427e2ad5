package friends

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/pkg/database"
)

// ErrSelfRequest is returned when a user sends a friend request to themself.
var ErrSelfRequest = errors.New("cannot send a friend request to yourself")

// Repository handles friendship persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a friends repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// SendRequest creates a pending friend request. If the addressee already
// has a pending request toward the requester, that one is accepted instead
// so the pair never holds two opposing rows.
func (r *Repository) SendRequest(ctx context.Context, requesterID, addresseeID uuid.UUID) (*models.FriendRequest, error) {
	if requesterID == addresseeID {
		return nil, ErrSelfRequest
	}

	const reverse = `UPDATE friend_requests SET status = 'accepted', updated_at = NOW()
		WHERE requester_id = $1 AND addressee_id = $2 AND status = 'pending'
		RETURNING id, requester_id, addressee_id, status, created_at, updated_at`
	var fr models.FriendRequest
	err := r.db.QueryRow(ctx, reverse, addresseeID, requesterID).
		Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err == nil {
		return &fr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	const q = `INSERT INTO friend_requests (id, requester_id, addressee_id)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (requester_id, addressee_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, requester_id, addressee_id, status, created_at, updated_at`
	err = r.db.QueryRow(ctx, q, requesterID, addresseeID).
		Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// AcceptRequest marks a pending request accepted. Only the addressee can
// accept; anyone else sees no rows.
func (r *Repository) AcceptRequest(ctx context.Context, requestID, addresseeID uuid.UUID) (*models.FriendRequest, error) {
	const q = `UPDATE friend_requests SET status = 'accepted', updated_at = NOW()
		WHERE id = $1 AND addressee_id = $2 AND status = 'pending'
		RETURNING id, requester_id, addressee_id, status, created_at, updated_at`
	var fr models.FriendRequest
	err := r.db.QueryRow(ctx, q, requestID, addresseeID).
		Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &fr, nil
}

// ListIncoming returns pending requests addressed to the user.
func (r *Repository) ListIncoming(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	const q = `SELECT id, requester_id, addressee_id, status, created_at, updated_at
		FROM friend_requests WHERE addressee_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.FriendRequest
	for rows.Next() {
		var fr models.FriendRequest
		if err := rows.Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, fr)
	}
	return list, rows.Err()
}

// ListFriends returns the user's accepted friends with their profiles.
func (r *Repository) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error) {
	const q = `SELECT u.id, u.email, u.display_name, u.image_url
		FROM friend_requests fr
		JOIN users u ON u.id = CASE WHEN fr.requester_id = $1 THEN fr.addressee_id ELSE fr.requester_id END
		WHERE (fr.requester_id = $1 OR fr.addressee_id = $1) AND fr.status = 'accepted'
		ORDER BY u.display_name ASC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.ID, &f.Email, &f.DisplayName, &f.ImageURL); err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return list, rows.Err()
}

// AreFriends reports whether an accepted friendship exists between two users.
func (r *Repository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM friend_requests
		WHERE status = 'accepted'
		AND ((requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1))`
	var exists int
	err := r.db.QueryRow(ctx, q, a, b).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
