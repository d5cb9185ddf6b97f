package account

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jokehub/jokehub/internal/auth"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/common/respond"
)

// Handler exposes authentication flows over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates an auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the auth routes. Register, login and
// forgot-password are public; the rest require an authenticated
// actor.
func (h *Handler) RegisterRoutes(r gin.IRouter, authn gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/password/forgot", h.ForgotPassword)
		authGroup.GET("/email/verify/:user_id/:hash", h.VerifyEmail)

		protected := authGroup.Group("", authn)
		{
			protected.GET("/profile", h.Profile)
			protected.POST("/logout", h.Logout)
			protected.PUT("/password/reset", h.ResetPassword)
			protected.PUT("/password/reset/:user_id", h.ResetPasswordForUser)
			protected.DELETE("/logout/user/:user_id", h.ForceLogoutUser)
			protected.DELETE("/logout/role/:role", h.ForceLogoutRole)
		}
	}
}

// Register handles POST /auth/register. Malformed registration
// details answer 401 so the response never confirms whether an
// address is registered.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Fail(c, http.StatusUnauthorized, gin.H{"error": err.Error()}, "Registration details error")
		return
	}

	u, token, err := h.service.Register(c.Request.Context(), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  u,
	}, "User successfully created")
}

// VerifyEmail handles GET /auth/email/verify/:user_id/:hash, the
// endpoint the mailed verification link points at.
func (h *Handler) VerifyEmail(c *gin.Context) {
	message, err := h.service.VerifyEmail(c.Request.Context(), c.Param("user_id"), c.Param("hash"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, message)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Fail(c, http.StatusUnauthorized, gin.H{"error": err.Error()}, "Invalid credentials")
		return
	}

	u, token, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  u,
	}, "Login successful")
}

// Profile handles GET /auth/profile.
func (h *Handler) Profile(c *gin.Context) {
	actor := auth.MustActor(c)

	u, err := h.service.Profile(c.Request.Context(), actor.ID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"user": u}, "User profile request successful")
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.Logout(c.Request.Context(), actor.ID); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{}, "Logout successful")
}

// ForgotPassword handles POST /auth/password/forgot. Always reports
// success so registered addresses cannot be probed.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email,max=255"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	h.service.ForgotPassword(c.Request.Context(), input.Email)
	respond.Success(c, http.StatusOK, nil, "If that email exists, a password reset link has been sent")
}

// ResetPassword handles PUT /auth/password/reset.
func (h *Handler) ResetPassword(c *gin.Context) {
	actor := auth.MustActor(c)

	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.Error(c, commonerrors.ValidationError(err.Error()))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), actor.ID, input); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "Password reset successful. Please login again.")
}

// ResetPasswordForUser handles PUT /auth/password/reset/:user_id.
func (h *Handler) ResetPasswordForUser(c *gin.Context) {
	actor := auth.MustActor(c)

	message, err := h.service.ResetPasswordForUser(c.Request.Context(), actor, c.Param("user_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, message)
}

// ForceLogoutUser handles DELETE /auth/logout/user/:user_id.
func (h *Handler) ForceLogoutUser(c *gin.Context) {
	actor := auth.MustActor(c)

	if err := h.service.ForceLogoutUser(c.Request.Context(), actor, c.Param("user_id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, "User has been logged out")
}

// ForceLogoutRole handles DELETE /auth/logout/role/:role.
func (h *Handler) ForceLogoutRole(c *gin.Context) {
	actor := auth.MustActor(c)
	role := c.Param("role")

	if err := h.service.ForceLogoutRole(c.Request.Context(), actor, role); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, http.StatusOK, nil, fmt.Sprintf("All %s users have been logged out", role))
}
