package realtime

import "github.com/google/uuid"

// Channel namespaces. Sessions get a shared room channel; invitations are
// addressed to the recipient's own channel so delivery does not depend on
// the recipient knowing the session exists.
const (
	sessionChannelPrefix = "watch_room:"
	userChannelPrefix    = "watch_user:"
)

// SessionChannel returns the pub/sub channel shared by a session's participants.
func SessionChannel(sessionID uuid.UUID) string {
	return sessionChannelPrefix + sessionID.String()
}

// UserChannel returns a user's personal pub/sub channel (invites, direct events).
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}
