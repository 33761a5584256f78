package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ticketcore/ticketcore/internal/core"
)

// requestID stamps every request reaching the ticket routes with a
// correlation id, setting it on the response header and carrying it into
// the request context so service-layer logging picks it up, grounded on
// the request-id middleware convention in orris-inc-orris's HTTP
// handlers.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Request = c.Request.WithContext(core.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
