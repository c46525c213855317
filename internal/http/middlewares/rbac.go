package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole blocks the request unless the authenticated identity
// carries one of the allowed roles.
func (m *AuthMiddleware) RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		for _, want := range allowed {
			if role == want {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Insufficient role for this operation",
			},
		})
	}
}
