package category

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes the category catalog over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a category handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the category routes behind authentication.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	categories := r.Group("/categories", authn)
	{
		categories.GET("", h.List)
		categories.POST("", h.Create)
		categories.GET("/search/:keyword", h.Search)
		categories.GET("/trash", h.Trash)
		categories.POST("/trash/restore", h.RestoreAll)
		categories.DELETE("/trash/empty", h.PurgeAll)
		categories.POST("/trash/:id", h.RestoreOne)
		categories.DELETE("/trash/:id", h.PurgeOne)
		categories.GET("/:id", h.Get)
		categories.PUT("/:id", h.Update)
		categories.DELETE("/:id", h.Delete)
	}
}

// List handles GET /categories.
func (h *Handler) List(c *gin.Context) {
	actor := auth.MustActor(c)

	categories, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, categories, "Categories retrieved")
}

// Get handles GET /categories/:id.
func (h *Handler) Get(c *gin.Context) {
	actor := auth.MustActor(c)

	detail, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, detail, "Category retrieved")
}

// Create handles POST /categories.
func (h *Handler) Create(c *gin.Context) {
	actor := auth.MustActor(c)

	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	cat, err := h.service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, cat, "Category created")
}

// Update handles PUT /categories/:id.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.MustActor(c)

	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	cat, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, cat, "Category updated")
}

// Delete handles DELETE /categories/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Category deleted")
}

// Search handles GET /categories/search/:keyword.
func (h *Handler) Search(c *gin.Context) {
	actor := auth.MustActor(c)

	categories, err := h.service.Search(c.Request.Context(), actor, c.Param("keyword"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, categories, "Categories found")
}

// Trash handles GET /categories/trash.
func (h *Handler) Trash(c *gin.Context) {
	actor := auth.MustActor(c)

	categories, err := h.service.Trash(c.Request.Context(), actor)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, categories, "Soft deleted categories retrieved")
}

// RestoreOne handles POST /categories/trash/:id.
func (h *Handler) RestoreOne(c *gin.Context) {
	actor := auth.MustActor(c)

	cat, err := h.service.RestoreOne(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, cat, "Category recovered")
}

// RestoreAll handles POST /categories/trash/restore.
func (h *Handler) RestoreAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.RestoreAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted categories recovered")
}

// PurgeOne handles DELETE /categories/trash/:id.
func (h *Handler) PurgeOne(c *gin.Context) {
	actor := auth.MustActor(c)

	cat, err := h.service.PurgeOne(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, cat, "Category permanently removed")
}

// PurgeAll handles DELETE /categories/trash/empty.
func (h *Handler) PurgeAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.PurgeAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted categories permanently removed")
}
