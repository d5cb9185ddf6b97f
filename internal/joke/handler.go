package joke

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes the joke catalog over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a joke handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the joke routes. The random endpoint is
// public; everything else requires an authenticated actor.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	jokes := r.Group("/jokes")
	{
		jokes.GET("/random", h.Random)

		protected := jokes.Group("", authn)
		{
			protected.GET("", h.List)
			protected.POST("", h.Create)
			protected.GET("/search/:keyword", h.Search)
			protected.GET("/trash", h.Trash)
			protected.POST("/trash/restore", h.RestoreAll)
			protected.DELETE("/trash/empty", h.PurgeAll)
			protected.POST("/trash/:id", h.RestoreOne)
			protected.DELETE("/trash/:id", h.PurgeOne)
			protected.GET("/:id", h.Get)
			protected.PUT("/:id", h.Update)
			protected.DELETE("/:id", h.Delete)
		}
	}
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// List handles GET /jokes.
func (h *Handler) List(c *gin.Context) {
	actor := auth.MustActor(c)
	page := pageParam(c)

	jokes, total, err := h.service.List(c.Request.Context(), actor, page)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK,
		respond.NewPage(jokes, page, h.service.PageSize(), total), "Jokes retrieved")
}

// Get handles GET /jokes/:id.
func (h *Handler) Get(c *gin.Context) {
	actor := auth.MustActor(c)

	j, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, j, "Joke retrieved")
}

// Create handles POST /jokes.
func (h *Handler) Create(c *gin.Context) {
	actor := auth.MustActor(c)

	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	j, err := h.service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, j, "Joke created")
}

// Update handles PUT /jokes/:id.
func (h *Handler) Update(c *gin.Context) {
	actor := auth.MustActor(c)

	var input Input
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	j, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, j, "Joke updated")
}

// Delete handles DELETE /jokes/:id.
func (h *Handler) Delete(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Joke deleted")
}

// Search handles GET /jokes/search/:keyword.
func (h *Handler) Search(c *gin.Context) {
	actor := auth.MustActor(c)

	jokes, err := h.service.Search(c.Request.Context(), actor, c.Param("keyword"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, jokes, "Jokes found")
}

// Random handles GET /jokes/random. Public.
func (h *Handler) Random(c *gin.Context) {
	j, err := h.service.Random(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, j, "Random joke retrieved")
}

// Trash handles GET /jokes/trash.
func (h *Handler) Trash(c *gin.Context) {
	actor := auth.MustActor(c)

	jokes, err := h.service.Trash(c.Request.Context(), actor)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, jokes, "Soft deleted jokes retrieved")
}

// RestoreOne handles POST /jokes/trash/:id.
func (h *Handler) RestoreOne(c *gin.Context) {
	actor := auth.MustActor(c)

	j, err := h.service.RestoreOne(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, j, "Joke recovered")
}

// RestoreAll handles POST /jokes/trash/restore.
func (h *Handler) RestoreAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.RestoreAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted jokes recovered")
}

// PurgeOne handles DELETE /jokes/trash/:id.
func (h *Handler) PurgeOne(c *gin.Context) {
	actor := auth.MustActor(c)

	j, err := h.service.PurgeOne(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, j, "Joke permanently removed")
}

// PurgeAll handles DELETE /jokes/trash/empty.
func (h *Handler) PurgeAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.PurgeAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Soft deleted jokes permanently removed")
}
