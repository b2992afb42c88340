package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID keys the per-request correlation ID in the Gin context;
// buildMetadata reads it so every envelope carries the ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware tags each request with a correlation ID. A
// client-supplied X-Request-ID is honored, so a classroom device retrying a
// join or an answer keeps one traceable ID; otherwise a fresh UUID is issued.
// The ID is echoed back in the response header.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
