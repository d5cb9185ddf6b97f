package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	"github.com/jokehub/jokehub/internal/common/respond"
)

var (
	// ErrMissingAuthHeader is returned when the Authorization header is missing
	ErrMissingAuthHeader = errors.New("missing authorization header")

	// ErrInvalidAuthHeader is returned when the Authorization header format is invalid
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
)

// ActorLoader resolves a fresh actor snapshot (roles, effective
// permissions, verification flag) for an authenticated user ID.
// Loading fails with a not-found error for soft-deleted users, which
// is what locks trashed accounts out of the API.
type ActorLoader interface {
	LoadActor(ctx context.Context, userID string) (authz.Actor, error)
}

// Middleware authenticates requests and attaches the actor snapshot.
type Middleware struct {
	tokens *TokenService
	actors ActorLoader
	logger *zap.Logger
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(tokens *TokenService, actors ActorLoader, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{tokens: tokens, actors: actors, logger: logger}
}

// Authenticate validates the bearer token and loads the actor
// snapshot into the request context.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Fail(c, http.StatusUnauthorized, nil, ErrMissingAuthHeader.Error())
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respond.Fail(c, http.StatusUnauthorized, nil, ErrInvalidAuthHeader.Error())
			c.Abort()
			return
		}

		claims, err := m.tokens.Validate(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			msg := ErrTokenInvalid.Error()
			if errors.Is(err, ErrTokenExpired) {
				msg = ErrTokenExpired.Error()
			} else if errors.Is(err, ErrTokenRevoked) {
				msg = ErrTokenRevoked.Error()
			}
			respond.Fail(c, http.StatusUnauthorized, nil, msg)
			c.Abort()
			return
		}

		actor, err := m.actors.LoadActor(c.Request.Context(), claims.Subject)
		if err != nil {
			m.logger.Warn("actor load failed",
				zap.Error(err),
				zap.String("user_id", claims.Subject),
			)
			respond.Fail(c, http.StatusUnauthorized, nil, ErrTokenInvalid.Error())
			c.Abort()
			return
		}

		SetActor(c, actor)
		c.Next()
	}
}
