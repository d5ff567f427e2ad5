package invites

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/couchsync/backend/internal/realtime"
)

type fakeBus struct {
	published []fakePublish
	failFor   map[string]bool
}

type fakePublish struct {
	Channel string
	Event   string
	Payload WatchInvite
}

func (b *fakeBus) Publish(_ context.Context, channel, event string, payload any) error {
	if b.failFor[channel] {
		return errors.New("publish failed")
	}
	b.published = append(b.published, fakePublish{Channel: channel, Event: event, Payload: payload.(WatchInvite)})
	return nil
}

func (b *fakeBus) Subscribe(context.Context, string, func(string, []byte)) (func(), error) {
	return func() {}, nil
}

type fakeFriends struct {
	friends map[uuid.UUID]bool
	err     error
}

func (f *fakeFriends) AreFriends(_ context.Context, _, b uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.friends[b], nil
}

func TestSendFansOutToEveryFriend(t *testing.T) {
	sender := uuid.New()
	r1, r2, r3 := uuid.New(), uuid.New(), uuid.New()

	bus := &fakeBus{}
	checker := &fakeFriends{friends: map[uuid.UUID]bool{r1: true, r2: true, r3: true}}
	s := NewSender(bus, checker, zap.NewNop())

	invite := WatchInvite{VideoID: "dQw4w9WgXcQ", SessionID: uuid.New(), SenderID: sender, SenderName: "Amy"}
	res := s.Send(context.Background(), invite, []uuid.UUID{r1, r2, r3})

	assert.ElementsMatch(t, []uuid.UUID{r1, r2, r3}, res.Invited)
	assert.Empty(t, res.Skipped)
	require.Len(t, bus.published, 3)
	for i, recipient := range []uuid.UUID{r1, r2, r3} {
		assert.Equal(t, realtime.UserChannel(recipient), bus.published[i].Channel)
		assert.Equal(t, EventWatchInvite, bus.published[i].Event)
		assert.Equal(t, recipient, bus.published[i].Payload.RecipientID)
		assert.Equal(t, "Amy", bus.published[i].Payload.SenderName)
	}
}

func TestSendSkipsNonFriends(t *testing.T) {
	sender := uuid.New()
	friend, stranger := uuid.New(), uuid.New()

	bus := &fakeBus{}
	checker := &fakeFriends{friends: map[uuid.UUID]bool{friend: true}}
	s := NewSender(bus, checker, zap.NewNop())

	res := s.Send(context.Background(), WatchInvite{SenderID: sender}, []uuid.UUID{stranger, friend})

	assert.Equal(t, []uuid.UUID{friend}, res.Invited)
	assert.Equal(t, []uuid.UUID{stranger}, res.Skipped)
	require.Len(t, bus.published, 1)
}

func TestSendSkipsSelf(t *testing.T) {
	sender := uuid.New()
	bus := &fakeBus{}
	checker := &fakeFriends{friends: map[uuid.UUID]bool{sender: true}}
	s := NewSender(bus, checker, zap.NewNop())

	res := s.Send(context.Background(), WatchInvite{SenderID: sender}, []uuid.UUID{sender})
	assert.Empty(t, res.Invited)
	assert.Equal(t, []uuid.UUID{sender}, res.Skipped)
}

func TestSendContinuesPastPublishFailure(t *testing.T) {
	sender := uuid.New()
	r1, r2 := uuid.New(), uuid.New()

	bus := &fakeBus{failFor: map[string]bool{realtime.UserChannel(r1): true}}
	checker := &fakeFriends{friends: map[uuid.UUID]bool{r1: true, r2: true}}
	s := NewSender(bus, checker, zap.NewNop())

	res := s.Send(context.Background(), WatchInvite{SenderID: sender}, []uuid.UUID{r1, r2})

	assert.Equal(t, []uuid.UUID{r2}, res.Invited, "a failed delivery must not block the rest")
	assert.Equal(t, []uuid.UUID{r1}, res.Skipped)
}
