// README: Identity middleware; trusts the gateway-injected user header.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor_id"

// Auth extracts the caller identity from the X-User-ID header set by the
// API gateway after token verification. Requests without it are rejected.
// [TODO] Verify gateway-signed identity headers once the gateway ships them.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader("X-User-ID")
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		c.Set(actorKey, uid)
		c.Next()
	}
}

// ActorID returns the authenticated caller's ID, or "" when unauthenticated.
func ActorID(c *gin.Context) string {
	v, ok := c.Get(actorKey)
	if !ok {
		return ""
	}
	uid, _ := v.(string)
	return uid
}
