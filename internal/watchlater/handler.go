package watchlater

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/middleware"
	"github.com/couchsync/backend/pkg/response"
)

// AddRequest is the body for POST /watch-later.
type AddRequest struct {
	VideoID string `json:"video_id" binding:"required"`
}

// Handler handles watch later HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a watch later handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Add handles POST /watch-later.
func (h *Handler) Add(c *gin.Context) {
	var req AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.Add(c.Request.Context(), userID, req.VideoID); err != nil {
		response.Internal(c, "failed to save video")
		return
	}
	response.Created(c, gin.H{"video_id": req.VideoID})
}

// Remove handles DELETE /watch-later/:videoId.
func (h *Handler) Remove(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	videoID := c.Param("videoId")
	if err := h.repo.Remove(c.Request.Context(), userID, videoID); err != nil {
		response.Internal(c, "failed to remove video")
		return
	}
	response.NoContent(c)
}

// List handles GET /watch-later.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.List(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list saved videos")
		return
	}
	response.OK(c, list)
}

// Contains handles GET /watch-later/:videoId.
func (h *Handler) Contains(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	videoID := c.Param("videoId")
	saved, err := h.repo.Contains(c.Request.Context(), userID, videoID)
	if err != nil {
		response.Internal(c, "failed to check saved video")
		return
	}
	response.OK(c, gin.H{"video_id": videoID, "saved": saved})
}
