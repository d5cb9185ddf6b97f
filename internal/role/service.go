package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// Service implements role management on top of the repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a role service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With(zap.String("component", "role-service")),
	}
}

// List returns all roles with their permissions.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Role, error) {
	if d := authz.CanBrowseRoles(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, commonerrors.DatabaseError("list roles", err)
	}
	return roles, nil
}

// Get returns a single role.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (*Role, error) {
	role, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanViewRole(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	return role, nil
}

// Create adds a role and binds the named permissions.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*Role, error) {
	if d := authz.CanCreateRole(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}

	now := time.Now().UTC()
	role := &Role{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Permissions: input.Permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateName):
			return nil, commonerrors.ValidationError("The name has already been taken.")
		case errors.Is(err, ErrUnknownPermission):
			return nil, commonerrors.ValidationError("The selected permissions are invalid.")
		}
		return nil, commonerrors.DatabaseError("create role", err)
	}
	if role.Permissions == nil {
		role.Permissions = []string{}
	}
	return role, nil
}

// Update renames a role and optionally replaces its permission set.
// The superuser role is immutable.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input UpdateInput) (*Role, error) {
	role, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if d := authz.CanUpdateRole(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	if role.Name == string(authz.RoleSuperuser) {
		return nil, commonerrors.Forbidden("Cannot edit superuser role")
	}

	if input.Name != "" {
		role.Name = input.Name
	}
	sync := input.Permissions != nil
	if sync {
		role.Permissions = input.Permissions
	}
	if err := s.repo.Update(ctx, role, sync); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateName):
			return nil, commonerrors.ValidationError("The name has already been taken.")
		case errors.Is(err, ErrUnknownPermission):
			return nil, commonerrors.ValidationError("The selected permissions are invalid.")
		case errors.Is(err, ErrNotFound):
			return nil, commonerrors.NotFound("Role not found")
		}
		return nil, commonerrors.DatabaseError("update role", err)
	}
	return s.find(ctx, id)
}

// Delete removes a role. Superuser is undeletable and a role with
// assigned users is kept with a conflict error naming the count.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	role, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if d := authz.CanDeleteRole(actor); !d.Allowed {
		return commonerrors.Forbidden("Unauthorized")
	}
	if role.Name == string(authz.RoleSuperuser) {
		return commonerrors.Forbidden("Cannot delete superuser role")
	}

	n, err := s.repo.CountAssignees(ctx, role.ID)
	if err != nil {
		return commonerrors.DatabaseError("count role assignees", err)
	}
	if n > 0 {
		return commonerrors.Conflict(fmt.Sprintf("Cannot delete role with %d assigned user(s)", n))
	}

	if err := s.repo.Delete(ctx, role.ID); err != nil {
		return commonerrors.DatabaseError("delete role", err)
	}
	return nil
}

// Search returns roles whose name matches the keyword.
func (s *Service) Search(ctx context.Context, actor authz.Actor, keyword string) ([]Role, error) {
	if d := authz.CanBrowseRoles(actor); !d.Allowed {
		return nil, commonerrors.Forbidden("Unauthorized")
	}
	roles, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, commonerrors.DatabaseError("search roles", err)
	}
	if len(roles) == 0 {
		return nil, commonerrors.NotFound(fmt.Sprintf("No roles found matching '%s'", keyword))
	}
	return roles, nil
}

func (s *Service) find(ctx context.Context, id string) (*Role, error) {
	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, commonerrors.NotFound("Role not found")
		}
		return nil, commonerrors.DatabaseError("get role", err)
	}
	return role, nil
}
