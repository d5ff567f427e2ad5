package friends

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/middleware"
	"github.com/couchsync/backend/pkg/response"
)

// SendRequestBody is the body for POST /friends/requests.
type SendRequestBody struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Handler handles friendship HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a friends handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// SendRequest handles POST /friends/requests.
func (h *Handler) SendRequest(c *gin.Context) {
	var req SendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	addresseeID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}

	fr, err := h.repo.SendRequest(c.Request.Context(), userID, addresseeID)
	if err != nil {
		if errors.Is(err, ErrSelfRequest) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to send friend request")
		return
	}
	response.Created(c, fr)
}

// AcceptRequest handles POST /friends/requests/:id/accept.
func (h *Handler) AcceptRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	fr, err := h.repo.AcceptRequest(c.Request.Context(), requestID, userID)
	if err != nil {
		response.NotFound(c, "friend request not found")
		return
	}
	response.OK(c, fr)
}

// ListIncoming handles GET /friends/requests.
func (h *Handler) ListIncoming(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list friend requests")
		return
	}
	response.OK(c, list)
}

// List handles GET /friends.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListFriends(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list friends")
		return
	}
	response.OK(c, list)
}
