package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/middleware"
	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/internal/realtime"
	"github.com/couchsync/backend/pkg/response"
)

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

// Handler handles watch session HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a session handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Create handles POST /sessions. The creator is recorded as host and first
// participant.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	s := &models.WatchSession{
		VideoID: req.VideoID,
		HostID:  userID,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		response.Internal(c, "failed to create session")
		return
	}
	if err := h.repo.AddParticipant(c.Request.Context(), s.ID, userID); err != nil {
		response.Internal(c, "failed to join session")
		return
	}
	response.Created(c, s)
}

// GetByID handles GET /sessions/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, s)
}

// Join handles POST /sessions/:id/join. Joining twice is harmless.
func (h *Handler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	if err := h.repo.AddParticipant(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to join session")
		return
	}
	// The joiner reconciles toward the snapshot, then asks peers over the
	// socket for anything fresher.
	response.OK(c, s)
}

// Leave handles POST /sessions/:id/leave.
func (h *Handler) Leave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.RemoveParticipant(c.Request.Context(), id, userID); err != nil {
		response.Internal(c, "failed to leave session")
		return
	}
	response.NoContent(c)
}

// Participants handles GET /sessions/:id/participants.
func (h *Handler) Participants(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	list, err := h.repo.ListParticipants(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /sessions/:id (host only).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	if s.HostID != userID {
		response.Forbidden(c, "only the host can end this session")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete session")
		return
	}
	response.NoContent(c)
}

// Presence returns a handler reporting how many clients are currently
// connected to the session room on this instance.
func (h *Handler) Presence(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid session id")
			return
		}
		response.OK(c, gin.H{"session_id": id, "count": hub.RoomCount(id)})
	}
}
