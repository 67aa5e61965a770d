package middleware

import (
	"strings"

	"parley/internal/core/services"
	"parley/internal/infrastructure/signal"

	"github.com/gin-gonic/gin"
)

// CurrentUser extracts the session identity from the cookie or Authorization
// header into the gin context. Requests without a valid token pass through
// anonymously; handlers that require identity check for its presence.
func CurrentUser(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := sessionToken(c); token != "" {
			if claims, err := authService.ValidateToken(token); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
			}
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(signal.SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
