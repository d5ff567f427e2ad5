package invites

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/middleware"
	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/pkg/response"
)

// SessionGetter looks up the session being invited to.
type SessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.WatchSession, error)
}

// SendBody is the body for POST /sessions/:id/invites.
type SendBody struct {
	RecipientIDs []string `json:"recipient_ids" binding:"required,min=1"`
}

// Handler handles invitation HTTP endpoints.
type Handler struct {
	sender   *Sender
	sessions SessionGetter
}

// NewHandler creates an invitation handler.
func NewHandler(sender *Sender, sessions SessionGetter) *Handler {
	return &Handler{sender: sender, sessions: sessions}
}

// Send handles POST /sessions/:id/invites.
func (h *Handler) Send(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req SendBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	senderName := c.GetString(middleware.ContextUserName)
	var senderImage *string
	if img := c.GetString(middleware.ContextUserImage); img != "" {
		senderImage = &img
	}

	recipients := make([]uuid.UUID, 0, len(req.RecipientIDs))
	for _, raw := range req.RecipientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid recipient id: "+raw)
			return
		}
		recipients = append(recipients, id)
	}

	invite := WatchInvite{
		VideoID:     session.VideoID,
		SessionID:   session.ID,
		SenderID:    userID,
		SenderName:  senderName,
		SenderImage: senderImage,
	}
	res := h.sender.Send(c.Request.Context(), invite, recipients)
	response.OK(c, res)
}
