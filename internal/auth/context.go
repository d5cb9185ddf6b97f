package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/authz"
)

var (
	// ErrActorNotFound is returned when no actor snapshot is present
	// in the request context
	ErrActorNotFound = errors.New("actor not found in context")
)

// Context key constants for storing values in the Gin context
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
)

// SetActor stores the actor snapshot in the Gin context.
func SetActor(c *gin.Context, actor authz.Actor) {
	c.Set(ContextKeyUserID, actor.ID)
	c.Set(ContextKeyActor, actor)
}

// GetActor extracts the actor snapshot from the Gin context.
func GetActor(c *gin.Context) (authz.Actor, error) {
	v, exists := c.Get(ContextKeyActor)
	if !exists {
		return authz.Actor{}, ErrActorNotFound
	}
	actor, ok := v.(authz.Actor)
	if !ok {
		return authz.Actor{}, ErrActorNotFound
	}
	return actor, nil
}

// MustActor returns the actor or an empty snapshot. Handlers behind
// the Authenticate middleware can rely on the snapshot being present.
func MustActor(c *gin.Context) authz.Actor {
	actor, _ := GetActor(c)
	return actor
}
