package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/email"
)

// JokeTrasher soft-deletes all jokes owned by a user. Implemented by
// the joke service; kept narrow so the packages stay decoupled.
type JokeTrasher interface {
	TrashByOwner(ctx context.Context, ownerID string) error
}

// VotePurger hard-deletes all votes cast by a user.
type VotePurger interface {
	PurgeByUser(ctx context.Context, userID string) (int64, error)
}

// Service implements user management on top of the repository.
type Service struct {
	repo      Repository
	jokes     JokeTrasher
	votes     VotePurger
	passwords *auth.PasswordService
	mailer    email.Sender
	logger    *zap.Logger
	pageSize  int
	verifyURL string
}

// NewService creates a user service.
func NewService(repo Repository, jokes JokeTrasher, votes VotePurger, passwords *auth.PasswordService, mailer email.Sender, logger *zap.Logger, pageSize int, verifyURL string) *Service {
	return &Service{
		repo:      repo,
		jokes:     jokes,
		votes:     votes,
		passwords: passwords,
		mailer:    mailer,
		logger:    logger.With(zap.String("component", "user-service")),
		pageSize:  pageSize,
		verifyURL: verifyURL,
	}
}

// PageSize returns the configured page size.
func (s *Service) PageSize() int {
	return s.pageSize
}

func subject(u *User) authz.Subject {
	return authz.Subject{ID: u.ID, Roles: u.Roles}
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, actor authz.Actor, page int) ([]User, int, error) {
	if d := authz.CanBrowseUsers(actor); !d.Allowed {
		return nil, 0, commonerrors.Forbidden("Unauthorized")
	}
	users, total, err := s.repo.List(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, 0, commonerrors.DatabaseError("list users", err)
	}
	return users, total, nil
}

// Get returns a single user. The target is resolved before the policy
// runs so missing users read as not found rather than forbidden.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (*User, error) {
	u, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanViewUser(actor, subject(u)); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	return u, nil
}

// Create adds a user with the requested role and sends a verification
// email. The role gates authorization: creating an admin requires
// user.add.admin, and so on.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*User, error) {
	if d := authz.CanCreateUserWithRole(actor, input.Role); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, commonerrors.Internal("hash password", err)
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Roles:        []string{input.Role},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, commonerrors.ValidationError("The email has already been taken.")
		}
		return nil, commonerrors.DatabaseError("create user", err)
	}

	// Delivery failures do not fail the request.
	if err := s.mailer.SendVerificationLink(ctx, u.Email, email.VerificationLink(s.verifyURL, u.ID, u.Email)); err != nil {
		s.logger.Warn("verification email not sent",
			zap.String("user_id", u.ID),
			zap.Error(err))
	}

	return u, nil
}

// Update changes name and email on an active user.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input UpdateInput) (*User, error) {
	u, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanUpdateUser(actor, subject(u)); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	if input.Name != "" {
		u.Name = input.Name
	}
	if input.Email != "" {
		u.Email = input.Email
	}
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, commonerrors.ValidationError("The email has already been taken.")
		}
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("User not found")
		}
		return nil, commonerrors.DatabaseError("update user", err)
	}
	return u, nil
}

// Delete soft-deletes a user and cascades: the user's jokes are
// soft-deleted and their votes are removed for good.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	u, err := s.findActive(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanDeleteUser(actor, subject(u)); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}

	if err := s.jokes.TrashByOwner(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("trash user jokes", err)
	}
	removed, err := s.votes.PurgeByUser(ctx, u.ID)
	if err != nil {
		return commonerrors.DatabaseError("purge user votes", err)
	}
	if err := s.repo.SoftDelete(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("delete user", err)
	}

	s.logger.Info("user deleted",
		zap.String("user_id", u.ID),
		zap.Int64("votes_removed", removed))
	return nil
}

// Search returns users whose name or email matches the keyword.
func (s *Service) Search(ctx context.Context, actor authz.Actor, keyword string, page int) ([]User, int, error) {
	if d := authz.CanSearchUsers(actor); !d.Allowed {
		return nil, 0, commonerrors.Forbidden("Unauthorized")
	}
	users, total, err := s.repo.Search(ctx, keyword, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, 0, commonerrors.DatabaseError("search users", err)
	}
	if total == 0 {
		return nil, 0, commonerrors.NotFound("No users found")
	}
	return users, total, nil
}

// AssignRole replaces the user's roles with the single named role.
func (s *Service) AssignRole(ctx context.Context, actor authz.Actor, id, role string) (*User, error) {
	u, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanAssignRole(actor, subject(u), role); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	if err := s.repo.SetRoles(ctx, u.ID, []string{role}); err != nil {
		if errors.Is(err, ErrUnknownRole) {
			return nil, commonerrors.ValidationError("The selected role is invalid.")
		}
		return nil, commonerrors.DatabaseError("assign role", err)
	}
	u.Roles = []string{role}
	return u, nil
}

// Trash lists soft-deleted users.
func (s *Service) Trash(ctx context.Context, actor authz.Actor) ([]User, error) {
	if d := authz.CanViewTrashedUsers(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	users, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return nil, commonerrors.DatabaseError("list trashed users", err)
	}
	if len(users) == 0 {
		return nil, commonerrors.NotFound("No soft deleted users found")
	}
	return users, nil
}

// RestoreOne brings a user back from the trash.
func (s *Service) RestoreOne(ctx context.Context, actor authz.Actor, id string) (*User, error) {
	u, err := s.findTrashed(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanRestoreUser(actor, subject(u)); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	if err := s.repo.Restore(ctx, u.ID); err != nil {
		return nil, commonerrors.DatabaseError("restore user", err)
	}
	u.DeletedAt = nil
	return u, nil
}

// RestoreAll restores every trashed user the actor may restore. Users
// outside the actor's reach are skipped, not failed.
func (s *Service) RestoreAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanRestoreAllUsers(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	users, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return commonerrors.DatabaseError("list trashed users", err)
	}
	if len(users) == 0 {
		return commonerrors.NotFound("No soft deleted users found")
	}
	for i := range users {
		if d := authz.CanRestoreUser(actor, subject(&users[i])); !d.Allowed {
			continue
		}
		if err := s.repo.Restore(ctx, users[i].ID); err != nil {
			return commonerrors.DatabaseError("restore user", err)
		}
	}
	return nil
}

// PurgeOne permanently removes a trashed user.
func (s *Service) PurgeOne(ctx context.Context, actor authz.Actor, id string) error {
	u, err := s.findTrashed(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanForceDeleteUser(actor, subject(u)); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	if err := s.repo.Purge(ctx, u.ID); err != nil {
		return commonerrors.DatabaseError("purge user", err)
	}
	return nil
}

// PurgeAll permanently removes every trashed user the actor may purge.
func (s *Service) PurgeAll(ctx context.Context, actor authz.Actor) error {
	if d := authz.CanEmptyUserTrash(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	users, err := s.repo.ListTrashed(ctx)
	if err != nil {
		return commonerrors.DatabaseError("list trashed users", err)
	}
	if len(users) == 0 {
		return commonerrors.NotFound("No soft deleted users found")
	}
	for i := range users {
		if d := authz.CanForceDeleteUser(actor, subject(&users[i])); !d.Allowed {
			continue
		}
		if err := s.repo.Purge(ctx, users[i].ID); err != nil {
			return commonerrors.DatabaseError("purge user", err)
		}
	}
	return nil
}

// LoadActor implements auth.ActorLoader for the authentication
// middleware.
func (s *Service) LoadActor(ctx context.Context, userID string) (authz.Actor, error) {
	actor, err := s.repo.LoadActor(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return authz.Actor{}, commonerrors.Unauthorized("Unauthenticated")
		}
		return authz.Actor{}, commonerrors.DatabaseError("load actor", err)
	}
	return actor, nil
}

func (s *Service) findActive(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("User not found")
		}
		return nil, commonerrors.DatabaseError("get user", err)
	}
	return u, nil
}

func (s *Service) findTrashed(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetTrashed(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("User not found in trash")
		}
		return nil, commonerrors.DatabaseError("get trashed user", err)
	}
	return u, nil
}
