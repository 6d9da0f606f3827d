package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireActor resolves the request identity and injects it into the
// request context. It performs no role checks; handlers that need them
// read the actor's role themselves.
func RequireActor(res Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := res.Resolve(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), a))
		c.Set("actor_id", a.ID)
		c.Next()
	}
}
