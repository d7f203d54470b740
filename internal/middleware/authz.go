package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/authz"
)

// RequirePermission authorizes an action type against the static permission
// table. It never inspects the resource itself; record-level ownership is not
// part of the access model.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		role, _ := v.(authz.Role)
		if !authz.Allowed(role, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
