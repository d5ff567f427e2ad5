package auth

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/couchsync/backend/pkg/response"
	"github.com/couchsync/backend/pkg/storage"
	"github.com/couchsync/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name" binding:"required"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an auth handler. s3 may be nil (avatar upload disabled).
func NewHandler(repo *Repository, jwt *JWTService, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, s3: s3, logger: logger}
}

func (h *Handler) token(userID uuid.UUID, email, name string, image *string, premium bool) (string, error) {
	imageURL := ""
	if image != nil {
		imageURL = *image
	}
	return h.jwt.Generate(userID, email, name, imageURL, premium)
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.DisplayName)
	if err != nil {
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.token(user.ID, user.Email, user.DisplayName, user.ImageURL, user.IsPremium)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.token(user.ID, user.Email, user.DisplayName, user.ImageURL, user.IsPremium)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /users/me.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(ContextUserID).(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}

// UploadAvatar handles POST /users/me/avatar (multipart form, field "file").
// The stored URL is what gets stamped as sender_image on watch invites.
func (h *Handler) UploadAvatar(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "avatar storage not configured")
		return
	}
	userID := c.MustGet(ContextUserID).(uuid.UUID)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxAvatarFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateAvatarType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}

	ext := strings.ToLower(path.Ext(header.Filename))
	if canonical, ok := storage.AllowedAvatarTypes[strings.ToLower(contentType)]; ok {
		ext = canonical
	}
	key := storage.AvatarKey(userID.String(), ext)

	url, err := h.s3.UploadAvatar(c.Request.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("avatar upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to upload avatar")
		return
	}
	if err := h.repo.UpdateImageURL(c.Request.Context(), userID, url); err != nil {
		response.Internal(c, "failed to save avatar")
		return
	}
	c.JSON(http.StatusOK, response.Body{Success: true, Data: gin.H{"image_url": url}})
}
