package invites

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/couchsync/backend/internal/realtime"
)

// EventWatchInvite is the wire event carrying a session invitation.
const EventWatchInvite = "watch_invite"

// WatchInvite is the invitation payload delivered on the recipient's user
// channel. Sender profile fields ride along so the recipient can render
// the prompt without a lookup.
type WatchInvite struct {
	VideoID     string    `json:"video_id"`
	SessionID   uuid.UUID `json:"session_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderImage *string   `json:"sender_image,omitempty"`
	RecipientID uuid.UUID `json:"recipient_id"`
}

// FriendChecker reports whether two users are friends. Invitations only go
// to the sender's friends.
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Result summarizes an invitation fan-out.
type Result struct {
	Invited []uuid.UUID `json:"invited"`
	Skipped []uuid.UUID `json:"skipped"`
}

// Sender fans invitations out to recipients over the realtime transport.
type Sender struct {
	bus     realtime.Transport
	friends FriendChecker
	logger  *zap.Logger
}

// NewSender creates an invitation sender.
func NewSender(bus realtime.Transport, friends FriendChecker, logger *zap.Logger) *Sender {
	return &Sender{bus: bus, friends: friends, logger: logger}
}

// Send delivers one invitation per recipient. Each delivery is independent:
// a recipient that is not a friend, or whose publish fails, is skipped and
// the rest still go out.
func (s *Sender) Send(ctx context.Context, invite WatchInvite, recipients []uuid.UUID) Result {
	var res Result
	for _, recipientID := range recipients {
		if recipientID == invite.SenderID {
			res.Skipped = append(res.Skipped, recipientID)
			continue
		}
		ok, err := s.friends.AreFriends(ctx, invite.SenderID, recipientID)
		if err != nil || !ok {
			if err != nil {
				s.logger.Warn("friendship check failed", zap.Error(err), zap.String("recipient_id", recipientID.String()))
			}
			res.Skipped = append(res.Skipped, recipientID)
			continue
		}

		payload := invite
		payload.RecipientID = recipientID
		if err := s.bus.Publish(ctx, realtime.UserChannel(recipientID), EventWatchInvite, payload); err != nil {
			s.logger.Warn("invite publish failed", zap.Error(err), zap.String("recipient_id", recipientID.String()))
			res.Skipped = append(res.Skipped, recipientID)
			continue
		}
		res.Invited = append(res.Invited, recipientID)
	}
	return res
}
