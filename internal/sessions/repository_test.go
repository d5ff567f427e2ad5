package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchsync/backend/internal/models"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCreateStartsPaused(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	hostID := uuid.New()
	sessionID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO watch_sessions`).
		WithArgs("dQw4w9WgXcQ", hostID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "is_playing", "playback_time", "created_at", "updated_at"}).
			AddRow(sessionID, false, 0.0, now, now))

	s := &models.WatchSession{VideoID: "dQw4w9WgXcQ", HostID: hostID}
	require.NoError(t, repo.Create(context.Background(), s))

	assert.Equal(t, sessionID, s.ID)
	assert.False(t, s.IsPlaying)
	assert.Zero(t, s.PlaybackTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddParticipantIsIdempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	sessionID := uuid.New()
	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO watch_session_participants`).
		WithArgs(sessionID, userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO watch_session_participants`).
		WithArgs(sessionID, userID).
		WillReturnResult(pgxmock.NewResult("INSERT", 0)) // conflict, no row

	require.NoError(t, repo.AddParticipant(context.Background(), sessionID, userID))
	require.NoError(t, repo.AddParticipant(context.Background(), sessionID, userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePlayback(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	sessionID := uuid.New()
	mock.ExpectExec(`UPDATE watch_sessions SET is_playing`).
		WithArgs(true, 128.5, sessionID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdatePlayback(context.Background(), sessionID, true, 128.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	sessionID := uuid.New()
	hostID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT id, video_id, host_id`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "video_id", "host_id", "is_playing", "playback_time", "created_at", "updated_at"}).
			AddRow(sessionID, "dQw4w9WgXcQ", hostID, true, 42.0, now, now))

	s, err := repo.GetByID(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", s.VideoID)
	assert.True(t, s.IsPlaying)
	assert.Equal(t, 42.0, s.PlaybackTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListParticipants(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	sessionID := uuid.New()
	u1, u2 := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT session_id, user_id, joined_at FROM watch_session_participants`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows([]string{"session_id", "user_id", "joined_at"}).
			AddRow(sessionID, u1, now.Add(-time.Minute)).
			AddRow(sessionID, u2, now))

	list, err := repo.ListParticipants(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, u1, list[0].UserID)
	assert.Equal(t, u2, list[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	sessionID := uuid.New()
	mock.ExpectExec(`DELETE FROM watch_sessions`).
		WithArgs(sessionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), sessionID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
