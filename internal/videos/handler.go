package videos

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/couchsync/backend/pkg/response"
)

// Handler handles video metadata HTTP endpoints.
type Handler struct {
	client *YouTubeClient
}

// NewHandler creates a video metadata handler.
func NewHandler(client *YouTubeClient) *Handler {
	return &Handler{client: client}
}

// GetByID handles GET /videos/:id.
func (h *Handler) GetByID(c *gin.Context) {
	meta, err := h.client.GetVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			response.NotFound(c, "video not found")
			return
		}
		response.Internal(c, "failed to fetch video metadata")
		return
	}
	response.OK(c, meta)
}
