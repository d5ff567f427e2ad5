package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/couchsync/backend/pkg/response"
)

// RequirePremium returns a middleware that allows only premium accounts.
// Watch-together hosting is a premium feature; joining a session is not.
func RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		premiumVal, ok := c.Get(ContextIsPremium)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		premium, _ := premiumVal.(bool)
		if !premium {
			response.Forbidden(c, "watch together is a premium feature")
			c.Abort()
			return
		}
		c.Next()
	}
}
