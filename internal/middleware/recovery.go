package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recovery returns a middleware that recovers from panics, logs the
// stack trace with a correlation ID and returns a JSON error response.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				correlationID := GetRequestID(c)
				if correlationID == "" {
					correlationID = uuid.New().String()
				}

				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("correlation_id", correlationID),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.ByteString("stack", debug.Stack()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success":        false,
					"message":        "Internal server error",
					"data":           nil,
					"correlation_id": correlationID,
					"timestamp":      time.Now().UTC().Format(time.RFC3339),
				})
			}
		}()

		c.Next()
	}
}
