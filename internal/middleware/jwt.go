package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/auth"
	"github.com/couchsync/backend/pkg/response"
)

// Context keys are defined alongside the claims in the auth package; the
// aliases keep middleware.ContextUserID working at existing call sites.
const (
	ContextUserID    = auth.ContextUserID
	ContextUserEmail = auth.ContextUserEmail
	ContextUserName  = auth.ContextUserName
	ContextUserImage = auth.ContextUserImage
	ContextIsPremium = auth.ContextIsPremium
)

// JWT returns a middleware that validates JWT and sets user claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserName, claims.DisplayName)
		c.Set(ContextUserImage, claims.ImageURL)
		c.Set(ContextIsPremium, claims.IsPremium)
		c.Next()
	}
}
