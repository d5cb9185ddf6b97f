// Package middleware provides HTTP middleware for the JokeHub API
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXRequestID is the request ID header name
const HeaderXRequestID = "X-Request-ID"

// Context key type for request ID to avoid collisions
type contextKey string

const RequestIDKey contextKey = "request_id"

// GetRequestID retrieves the request ID from the Gin context
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(string(RequestIDKey)); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// ContextWithRequestID adds a request ID to a context.Context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestID assigns a unique ID to each incoming request. An existing
// X-Request-ID header is honored; otherwise a UUID is generated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(string(RequestIDKey), requestID)

		ctx := ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderXRequestID, requestID)

		c.Next()
	}
}
