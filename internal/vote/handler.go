package vote

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes the vote ledger over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a vote handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the vote routes behind authentication.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	r.POST("/jokes/:joke_id/vote", authn, h.Cast)

	votes := r.Group("/votes", authn)
	{
		votes.DELETE("/user/:user_id", h.ClearUser)
		votes.DELETE("/reset", h.ResetAll)
	}
}

// Cast handles POST /jokes/:joke_id/vote.
func (h *Handler) Cast(c *gin.Context) {
	actor := auth.MustActor(c)

	var input CastInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	result, err := h.service.Cast(c.Request.Context(), actor, c.Param("joke_id"), *input.Rating)
	if err != nil {
		respond.Error(c, err)
		return
	}

	switch result.Outcome {
	case OutcomeRemoved:
		respond.Success(c, http.StatusOK, nil, "Vote removed")
	case OutcomeUpdated:
		respond.Success(c, http.StatusOK, result.Vote, "Rating Updated")
	default:
		message := "Liked"
		if result.Vote.Rating == -1 {
			message = "Disliked"
		}
		respond.Success(c, http.StatusCreated, result.Vote, message)
	}
}

// ClearUser handles DELETE /votes/user/:user_id.
func (h *Handler) ClearUser(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.ClearUser(c.Request.Context(), actor, c.Param("user_id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Votes Deleted")
}

// ResetAll handles DELETE /votes/reset.
func (h *Handler) ResetAll(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.ResetAll(c.Request.Context(), actor); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Votes reset")
}
