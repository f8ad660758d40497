package httpserver

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/service/workflow"
)

const sessionKey = "orderdesk.session"

// sessionMiddleware resolves :sid to a live session or answers 404.
func sessionMiddleware(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Get(c.Param("sid"))
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

func currentSession(c *gin.Context) *workflow.Session {
	return c.MustGet(sessionKey).(*workflow.Session)
}
