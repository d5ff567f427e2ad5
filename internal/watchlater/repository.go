package watchlater

import (
	"context"

	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/pkg/database"
)

// Repository handles the watch later list.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a watch later repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// Add saves a video to the user's list. Saving the same video again is a
// no-op.
func (r *Repository) Add(ctx context.Context, userID uuid.UUID, videoID string) error {
	const q = `INSERT INTO watch_later (user_id, video_id) VALUES ($1, $2)
		ON CONFLICT (user_id, video_id) DO NOTHING`
	_, err := r.db.Exec(ctx, q, userID, videoID)
	return err
}

// Remove deletes a video from the user's list.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID, videoID string) error {
	const q = `DELETE FROM watch_later WHERE user_id = $1 AND video_id = $2`
	_, err := r.db.Exec(ctx, q, userID, videoID)
	return err
}

// List returns the user's saved videos, newest first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]models.WatchLaterItem, error) {
	const q = `SELECT user_id, video_id, added_at FROM watch_later
		WHERE user_id = $1 ORDER BY added_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.WatchLaterItem
	for rows.Next() {
		var item models.WatchLaterItem
		if err := rows.Scan(&item.UserID, &item.VideoID, &item.AddedAt); err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

// Contains reports whether a video is on the user's list.
func (r *Repository) Contains(ctx context.Context, userID uuid.UUID, videoID string) (bool, error) {
	const q = `SELECT COUNT(*) FROM watch_later WHERE user_id = $1 AND video_id = $2`
	var n int
	if err := r.db.QueryRow(ctx, q, userID, videoID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
