package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/platform/ctxutil"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// RequestTrace stamps every request with a request ID and threads trace
// data through the context for downstream logging.
func RequestTrace(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		td := &ctxutil.TraceData{RequestID: requestID}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
