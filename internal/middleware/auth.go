package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/pkg/jwt"
	"github.com/marginalia-app/core/internal/pkg/response"
)

const ContextKeySubject = "auth_subject"

// Auth returns a middleware that enforces bearer-token authentication for
// destructive and administrative operations.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := jwt.Parse(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// IsAuthenticated reports whether the request carries a valid token.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := c.Get(ContextKeySubject)
	if ok {
		return true
	}
	_, err := jwt.Parse(extractToken(c))
	return err == nil
}

func extractToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return strings.TrimSpace(c.Query("token"))
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return header
}
