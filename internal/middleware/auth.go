package middleware

import (
	"net/http"
	"strings"

	jwtsvc "packetdrop/internal/pkg/jwt"
	"packetdrop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved identity in the context.
func RequireAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid Authorization header")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is present and valid, and
// otherwise lets the request through anonymously. Uploads accept anonymous
// submissions, so a stale token must not block them.
func OptionalAuth(jwt *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := jwt.ValidateToken(tokenStr); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("role", claims.Role)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}
