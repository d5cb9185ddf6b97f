// Package account implements the authentication flows: registration,
// login, logout, the password reset family and forced logout.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/email"
	"github.com/jokehub/jokehub/internal/user"
)

// RegisterInput carries the self-registration payload. The password
// confirmation must match, per the account form.
type RegisterInput struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

// LoginInput carries the login payload.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordInput carries the own-password change payload.
type ResetPasswordInput struct {
	CurrentPassword         string `json:"current_password" binding:"required"`
	NewPassword             string `json:"new_password" binding:"required,min=6"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required,eqfield=NewPassword"`
}

// Service implements authentication flows: registration, login,
// token revocation and the password reset family.
type Service struct {
	users        user.Repository
	passwords    *auth.PasswordService
	tokens       *auth.TokenService
	mailer       email.Sender
	logger       *zap.Logger
	resetLinkURL string
	verifyURL    string
}

// NewService creates an auth service.
func NewService(users user.Repository, passwords *auth.PasswordService, tokens *auth.TokenService, mailer email.Sender, logger *zap.Logger, resetLinkURL, verifyURL string) *Service {
	return &Service{
		users:        users,
		passwords:    passwords,
		tokens:       tokens,
		mailer:       mailer,
		logger:       logger.With(zap.String("component", "auth-service")),
		resetLinkURL: resetLinkURL,
		verifyURL:    verifyURL,
	}
}

// Register creates a client account and issues its first token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, string, error) {
	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, "", commonerrors.Internal("hash password", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Roles:        []string{string(authz.RoleClient)},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, "", commonerrors.New(commonerrors.ErrValidation, "Registration details error", 401)
		}
		return nil, "", commonerrors.DatabaseError("create user", err)
	}

	token, err := s.tokens.Issue(ctx, u.ID, u.Roles)
	if err != nil {
		return nil, "", commonerrors.Internal("issue token", err)
	}

	if err := s.mailer.SendVerificationLink(ctx, u.Email, email.VerificationLink(s.verifyURL, u.ID, u.Email)); err != nil {
		s.logger.Warn("verification email not sent",
			zap.String("user_id", u.ID),
			zap.Error(err))
	}

	return u, token, nil
}

// VerifyEmail marks an account's address verified when the link hash
// matches the stored address. Verifying twice is harmless.
func (s *Service) VerifyEmail(ctx context.Context, userID, hash string) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", commonerrors.NotFound("User not found")
		}
		return "", commonerrors.DatabaseError("get user", err)
	}

	if hash != email.VerificationHash(u.Email) {
		return "", commonerrors.Forbidden("Invalid verification link")
	}
	if u.EmailVerifiedAt != nil {
		return "Email already verified", nil
	}

	now := time.Now().UTC()
	if err := s.users.SetEmailVerified(ctx, u.ID, &now); err != nil {
		return "", commonerrors.DatabaseError("verify email", err)
	}
	return "Email verified", nil
}

// Login authenticates by email and password and issues a token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", commonerrors.Unauthorized("Invalid credentials")
		}
		return nil, "", commonerrors.DatabaseError("get user", err)
	}
	if err := s.passwords.Verify(input.Password, u.PasswordHash); err != nil {
		return nil, "", commonerrors.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.Issue(ctx, u.ID, u.Roles)
	if err != nil {
		return nil, "", commonerrors.Internal("issue token", err)
	}
	return u, token, nil
}

// Logout revokes every outstanding token of the caller.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return commonerrors.Internal("revoke tokens", err)
	}
	return nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, userID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, commonerrors.NotFound("User not found")
		}
		return nil, commonerrors.DatabaseError("get user", err)
	}
	return u, nil
}

// ForgotPassword sends a reset link when the address is registered.
// The caller always sees success so addresses cannot be probed.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) {
	u, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.logger.Error("forgot-password lookup failed", zap.Error(err))
		}
		return
	}
	if err := s.mailer.SendPasswordResetLink(ctx, u.Email, s.resetLinkURL); err != nil {
		s.logger.Warn("reset email not sent",
			zap.String("user_id", u.ID),
			zap.Error(err))
	}
}

// ResetPassword changes the caller's own password. The current
// password must check out and the new one must actually be new. All
// tokens are revoked afterwards.
func (s *Service) ResetPassword(ctx context.Context, actorID string, input ResetPasswordInput) error {
	u, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return commonerrors.NotFound("User not found")
		}
		return commonerrors.DatabaseError("get user", err)
	}

	if err := s.passwords.Verify(input.CurrentPassword, u.PasswordHash); err != nil {
		return commonerrors.Unauthorized("Current password is incorrect")
	}
	if err := s.passwords.Verify(input.NewPassword, u.PasswordHash); err == nil {
		return commonerrors.DomainRule("New password must be different from current password")
	}

	hash, err := s.passwords.Hash(input.NewPassword)
	if err != nil {
		return commonerrors.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return commonerrors.DatabaseError("update password", err)
	}
	if err := s.tokens.RevokeAll(ctx, u.ID); err != nil {
		return commonerrors.Internal("revoke tokens", err)
	}
	return nil
}

// ResetPasswordForUser sends a reset link to another account, within
// the actor's reach: staff only touch clients, admins stay below
// admin.
func (s *Service) ResetPasswordForUser(ctx context.Context, actor authz.Actor, targetID string) (string, error) {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", commonerrors.NotFound("User not found")
		}
		return "", commonerrors.DatabaseError("get user", err)
	}

	if d := authz.CanResetPasswordForUser(actor, authz.Subject{ID: target.ID, Roles: target.Roles}); !d.Allowed {
		if d.Reason == authz.ReasonRoleCeiling {
			return "", commonerrors.Forbidden("Cannot reset password for this user")
		}
		return "", commonerrors.Forbidden("Unauthorized")
	}

	if err := s.mailer.SendPasswordResetLink(ctx, target.Email, s.resetLinkURL); err != nil {
		return "", commonerrors.Internal("send reset link", err)
	}
	return fmt.Sprintf("Password reset link sent to %s", target.Email), nil
}

// ForceLogoutUser revokes every token of another account, within the
// actor's reach.
func (s *Service) ForceLogoutUser(ctx context.Context, actor authz.Actor, targetID string) error {
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return commonerrors.NotFound("User not found")
		}
		return commonerrors.DatabaseError("get user", err)
	}

	if d := authz.CanForceLogoutUser(actor, authz.Subject{ID: target.ID, Roles: target.Roles}); !d.Allowed {
		if d.Reason == authz.ReasonRoleCeiling {
			return commonerrors.Forbidden("Cannot logout this user")
		}
		return commonerrors.Forbidden("Unauthorized")
	}

	if err := s.tokens.RevokeAll(ctx, target.ID); err != nil {
		return commonerrors.Internal("revoke tokens", err)
	}
	return nil
}

// ForceLogoutRole revokes tokens for every active user holding the
// role.
func (s *Service) ForceLogoutRole(ctx context.Context, actor authz.Actor, role string) error {
	if !authz.IsValidRole(role) || role == string(authz.RoleGuest) {
		return commonerrors.BadRequest("Invalid role")
	}

	if d := authz.CanForceLogoutRole(actor, role); !d.Allowed {
		if d.Reason == authz.ReasonRoleCeiling {
			return commonerrors.Forbidden("Cannot logout this role")
		}
		return commonerrors.Forbidden("Unauthorized")
	}

	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return commonerrors.DatabaseError("list users by role", err)
	}
	if len(users) == 0 {
		return commonerrors.NotFound(fmt.Sprintf("No users found with role %s", role))
	}
	for i := range users {
		if err := s.tokens.RevokeAll(ctx, users[i].ID); err != nil {
			return commonerrors.Internal("revoke tokens", err)
		}
	}
	return nil
}
