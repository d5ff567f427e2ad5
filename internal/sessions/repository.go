package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/pkg/database"
)

// Repository handles watch session persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates a session repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

// Create inserts a new watch session. New sessions always start paused at
// time zero; playback state only moves through UpdatePlayback.
func (r *Repository) Create(ctx context.Context, s *models.WatchSession) error {
	const q = `INSERT INTO watch_sessions (id, video_id, host_id, is_playing, playback_time)
		VALUES (gen_random_uuid(), $1, $2, FALSE, 0)
		RETURNING id, is_playing, playback_time, created_at, updated_at`
	return r.db.QueryRow(ctx, q, s.VideoID, s.HostID).
		Scan(&s.ID, &s.IsPlaying, &s.PlaybackTime, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a watch session by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.WatchSession, error) {
	const q = `SELECT id, video_id, host_id, is_playing, playback_time, created_at, updated_at
		FROM watch_sessions WHERE id = $1`
	var s models.WatchSession
	err := r.db.QueryRow(ctx, q, id).
		Scan(&s.ID, &s.VideoID, &s.HostID, &s.IsPlaying, &s.PlaybackTime, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddParticipant records a user joining a session. Re-joining is a no-op,
// the participant row stays unique per (session, user).
func (r *Repository) AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	const q = `INSERT INTO watch_session_participants (session_id, user_id) VALUES ($1, $2)
		ON CONFLICT (session_id, user_id) DO NOTHING`
	_, err := r.db.Exec(ctx, q, sessionID, userID)
	return err
}

// RemoveParticipant removes a user from a session.
func (r *Repository) RemoveParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	const q = `DELETE FROM watch_session_participants WHERE session_id = $1 AND user_id = $2`
	_, err := r.db.Exec(ctx, q, sessionID, userID)
	return err
}

// ListParticipants returns the participants of a session, oldest first.
func (r *Repository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error) {
	const q = `SELECT session_id, user_id, joined_at FROM watch_session_participants
		WHERE session_id = $1 ORDER BY joined_at ASC`
	rows, err := r.db.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SessionParticipant
	for rows.Next() {
		var p models.SessionParticipant
		if err := rows.Scan(&p.SessionID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdatePlayback stores the latest playback snapshot for a session.
// Last writer wins.
func (r *Repository) UpdatePlayback(ctx context.Context, id uuid.UUID, isPlaying bool, playbackTime float64) error {
	const q = `UPDATE watch_sessions SET is_playing = $1, playback_time = $2, updated_at = NOW() WHERE id = $3`
	_, err := r.db.Exec(ctx, q, isPlaying, playbackTime, id)
	return err
}

// Delete removes a session. Participant rows go with it via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM watch_sessions WHERE id = $1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}
