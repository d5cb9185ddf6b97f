package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes own-profile management over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the profile routes behind authentication.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	profile := r.Group("/profile", authn)
	{
		profile.PUT("", h.Update)
		profile.DELETE("", h.Delete)
	}
}

// Update handles PUT /profile.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.MustActor(c)

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	u, err := h.service.Update(c.Request.Context(), actor, input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"user": u}, "Profile updated successfully")
}

// Delete handles DELETE /profile.
func (h *Handler) Delete(c *gin.Context) {
	actor := auth.MustActor(c)

	var input DeleteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, input); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Account deleted successfully")
}
