package friends

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

func requestRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "requester_id", "addressee_id", "status", "created_at", "updated_at"})
}

func TestSendRequestRejectsSelf(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	id := uuid.New()
	_, err := repo.SendRequest(context.Background(), id, id)
	assert.ErrorIs(t, err, ErrSelfRequest)
}

func TestSendRequestCreatesPending(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	requester, addressee := uuid.New(), uuid.New()
	now := time.Now()

	// No reverse pending request exists.
	mock.ExpectQuery(`UPDATE friend_requests SET status = 'accepted'`).
		WithArgs(addressee, requester).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO friend_requests`).
		WithArgs(requester, addressee).
		WillReturnRows(requestRows().AddRow(uuid.New(), requester, addressee, models.FriendRequestPending, now, now))

	fr, err := repo.SendRequest(context.Background(), requester, addressee)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, fr.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendRequestAcceptsReversePending(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	requester, addressee := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(`UPDATE friend_requests SET status = 'accepted'`).
		WithArgs(addressee, requester).
		WillReturnRows(requestRows().AddRow(uuid.New(), addressee, requester, models.FriendRequestAccepted, now, now))

	fr, err := repo.SendRequest(context.Background(), requester, addressee)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, fr.Status, "opposing requests collapse into a friendship")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptRequestOnlyAddressee(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	requestID, stranger := uuid.New(), uuid.New()
	mock.ExpectQuery(`UPDATE friend_requests SET status = 'accepted'`).
		WithArgs(requestID, stranger).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.AcceptRequest(context.Background(), requestID, stranger)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAreFriends(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	a, b := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT 1 FROM friend_requests`).
		WithArgs(a, b).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := repo.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAreFriendsFalseWhenNoRow(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	a, b := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT 1 FROM friend_requests`).
		WithArgs(a, b).
		WillReturnError(pgx.ErrNoRows)

	ok, err := repo.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFriends(t *testing.T) {
	mock := newMock(t)
	repo := NewRepository(mock)

	me := uuid.New()
	friendID := uuid.New()
	img := "https://cdn.example.com/a.jpg"

	mock.ExpectQuery(`SELECT u.id, u.email, u.display_name, u.image_url`).
		WithArgs(me).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "display_name", "image_url"}).
			AddRow(friendID, "amy@example.com", "Amy", &img))

	list, err := repo.ListFriends(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Amy", list[0].DisplayName)
	require.NotNil(t, list[0].ImageURL)
	assert.Equal(t, img, *list[0].ImageURL)
}
