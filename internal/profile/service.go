// Package profile implements own-account management: update name and
// email, and delete the account after a password confirmation.
package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/user"
)

// TokenRevoker invalidates all outstanding tokens for a user.
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// UpdateInput carries the profile update payload. Both fields are
// required, matching the account form.
type UpdateInput struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email,max=255"`
}

// DeleteInput carries the password confirmation for account removal.
type DeleteInput struct {
	Password string `json:"password" binding:"required"`
}

// Service implements own-profile operations.
type Service struct {
	users     user.Repository
	jokes     user.JokeTrasher
	votes     user.VotePurger
	passwords *auth.PasswordService
	tokens    TokenRevoker
	logger    *zap.Logger
}

// NewService creates a profile service.
func NewService(users user.Repository, jokes user.JokeTrasher, votes user.VotePurger, passwords *auth.PasswordService, tokens TokenRevoker, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		jokes:     jokes,
		votes:     votes,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger.With(zap.String("component", "profile-service")),
	}
}

// Update changes the actor's own name and email. Changing the email
// clears the verification timestamp until the new address is
// confirmed.
func (s *Service) Update(ctx context.Context, actor authz.Actor, input UpdateInput) (*user.User, error) {
	if !actor.Can(authz.PermProfileEditOwn) {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, commonerrors.NotFound("User not found")
		}
		return nil, commonerrors.DatabaseError("get user", err)
	}

	if u.Email != input.Email {
		u.EmailVerifiedAt = nil
	}
	u.Name = input.Name
	u.Email = input.Email

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, commonerrors.ValidationError("The email has already been taken.")
		}
		return nil, commonerrors.DatabaseError("update profile", err)
	}
	return u, nil
}

// Delete removes the actor's own account after verifying the
// password. Tokens are revoked and the deletion cascade runs: jokes
// are trashed, votes are gone for good.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, input DeleteInput) error {
	if !actor.Can(authz.PermProfileDeleteOwn) {
		return commonerrors.Forbidden("Unauthorized")
	}

	u, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return commonerrors.NotFound("User not found")
		}
		return commonerrors.DatabaseError("get user", err)
	}

	if err := s.passwords.Verify(input.Password, u.PasswordHash); err != nil {
		return commonerrors.Unauthorized("Incorrect password")
	}

	if err := s.tokens.RevokeAll(ctx, u.ID); err != nil {
		return commonerrors.Internal("revoke tokens", err)
	}
	if err := s.jokes.TrashByOwner(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("trash user jokes", err)
	}
	if _, err := s.votes.PurgeByUser(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("purge user votes", err)
	}
	if err := s.users.SoftDelete(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("delete account", err)
	}

	s.logger.Info("account deleted", zap.String("user_id", u.ID))
	return nil
}
