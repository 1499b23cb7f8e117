package user

import (
	"net/http"

	"hexapink-api/internal/apperr"
	"hexapink-api/internal/middlewares"

	"github.com/gin-gonic/gin"
)

type RoleLookup interface {
	GetByID(id uint) (*User, error)
}

// RequireRole must run after middlewares.AuthMiddleware.
func RequireRole(users RoleLookup, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		uid, ok := middlewares.UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		u, err := users.GetByID(uid)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			apperr.Respond(c, err)
			c.Abort()
			return
		}
		if _, ok := allowed[u.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
