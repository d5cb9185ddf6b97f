package user

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes user management over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a user handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the user routes. All routes require an
// authenticated actor.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	users := r.Group("/users", authn)
	{
		users.GET("", h.List)
		users.POST("", h.Create)
		users.GET("/search/:keyword", h.Search)
		users.GET("/trash", h.Trash)
		users.POST("/trash/restore", h.RestoreAll)
		users.DELETE("/trash/empty", h.PurgeAll)
		users.POST("/trash/:id", h.RestoreOne)
		users.DELETE("/trash/:id", h.PurgeOne)
		users.POST("/:id/assign-role", h.AssignRole)
		users.GET("/:id", h.Get)
		users.PUT("/:id", h.Update)
		users.DELETE("/:id", h.Delete)
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// List handles GET /users.
func (h *Handler) List(c *gin.Context) {
	actor := auth.MustActor(c)
	page := pageParam(c)

	users, total, err := h.service.List(c.Request.Context(), actor, page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK,
		respond.NewPage(users, page, h.service.PageSize(), total), "Users retrieved")
}

// Get handles GET /users/:id.
func (h *Handler) Get(c *gin.Context) {
	actor := auth.MustActor(c)

	u, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, u, "User retrieved")
}

// Create handles POST /users.
func (h *Handler) Create(c *gin.Context) {
	actor := auth.MustActor(c)

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	u, err := h.service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, u, "User created successfully. Verification email sent.")
}

// Update handles PUT /users/:id.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.MustActor(c)

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	u, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, u, "User updated successfully")
}

// Delete handles DELETE /users/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "User deleted successfully")
}

// Search handles GET /users/search/:keyword.
func (h *Handler) Search(c *gin.Context) {
	actor := auth.MustActor(c)
	page := pageParam(c)

	users, total, err := h.service.Search(c.Request.Context(), actor, c.Param("keyword"), page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK,
		respond.NewPage(users, page, h.service.PageSize(), total), "Users found")
}

// AssignRole handles POST /users/:id/assign-role.
func (h *Handler) AssignRole(c *gin.Context) {
	actor := auth.MustActor(c)

	var input AssignRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	u, err := h.service.AssignRole(c.Request.Context(), actor, c.Param("id"), input.Role)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, u, "Role assigned successfully")
}

// Trash handles GET /users/trash.
func (h *Handler) Trash(c *gin.Context) {
	actor := auth.MustActor(c)

	users, err := h.service.Trash(c.Request.Context(), actor)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, users, "Soft deleted users retrieved")
}

// RestoreOne handles POST /users/trash/:id.
func (h *Handler) RestoreOne(c *gin.Context) {
	actor := auth.MustActor(c)

	u, err := h.service.RestoreOne(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, u, "User restored successfully")
}

// RestoreAll handles POST /users/trash/restore.
func (h *Handler) RestoreAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.RestoreAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted users restored")
}

// PurgeOne handles DELETE /users/trash/:id.
func (h *Handler) PurgeOne(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.PurgeOne(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "User permanently deleted")
}

// PurgeAll handles DELETE /users/trash/empty.
func (h *Handler) PurgeAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.PurgeAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted users permanently removed")
}
