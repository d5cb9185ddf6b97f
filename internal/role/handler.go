package role

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes role management over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a role handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the role routes behind authentication.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	roles := r.Group("/roles", authn)
	{
		roles.GET("", h.List)
		roles.POST("", h.Create)
		roles.GET("/search/:keyword", h.Search)
		roles.GET("/:id", h.Get)
		roles.PUT("/:id", h.Update)
		roles.DELETE("/:id", h.Delete)
	}
}

// List handles GET /roles.
func (h *Handler) List(c *gin.Context) {
	actor := auth.MustActor(c)

	roles, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, roles, "Roles retrieved")
}

// Get handles GET /roles/:id.
func (h *Handler) Get(c *gin.Context) {
	actor := auth.MustActor(c)

	role, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, role, "Role retrieved")
}

// Create handles POST /roles.
func (h *Handler) Create(c *gin.Context) {
	actor := auth.MustActor(c)

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	role, err := h.service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, role, "Role created")
}

// Update handles PUT /roles/:id.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.MustActor(c)

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	role, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, role, "Role updated")
}

// Delete handles DELETE /roles/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Role deleted")
}

// Search handles GET /roles/search/:keyword.
func (h *Handler) Search(c *gin.Context) {
	actor := auth.MustActor(c)

	roles, err := h.service.Search(c.Request.Context(), actor, c.Param("keyword"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, roles, fmt.Sprintf("Found %d role(s)", len(roles)))
}
