package role

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// fakeRepository is an in-memory role store with per-role assignee
// counts.
type fakeRepository struct {
	roles     map[string]*Role
	assignees map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		roles:     make(map[string]*Role),
		assignees: make(map[string]int),
	}
}

func (f *fakeRepository) add(r Role, assigned int) {
	copy := r
	f.roles[r.ID] = &copy
	f.assignees[r.ID] = assigned
}

func (f *fakeRepository) validPermissions(perms []string) bool {
	for _, p := range perms {
		if !authz.IsRegistered(p) {
			return false
		}
	}
	return true
}

func (f *fakeRepository) Create(ctx context.Context, r *Role) error {
	for _, existing := range f.roles {
		if existing.Name == r.Name {
			return ErrDuplicateName
		}
	}
	if !f.validPermissions(r.Permissions) {
		return ErrUnknownPermission
	}
	copy := *r
	f.roles[r.ID] = &copy
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, r *Role, syncPermissions bool) error {
	stored, ok := f.roles[r.ID]
	if !ok {
		return ErrNotFound
	}
	for _, other := range f.roles {
		if other.ID != r.ID && other.Name == r.Name {
			return ErrDuplicateName
		}
	}
	if syncPermissions {
		if !f.validPermissions(r.Permissions) {
			return ErrUnknownPermission
		}
		stored.Permissions = r.Permissions
	}
	stored.Name = r.Name
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *r
	return &copy, nil
}

func (f *fakeRepository) List(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, r := range f.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepository) Search(ctx context.Context, keyword string) ([]Role, error) {
	var out []Role
	for _, r := range f.roles {
		if strings.Contains(strings.ToLower(r.Name), strings.ToLower(keyword)) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepository) CountAssignees(ctx context.Context, id string) (int, error) {
	return f.assignees[id], nil
}

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	if _, ok := f.roles[id]; !ok {
		return ErrNotFound
	}
	delete(f.roles, id)
	return nil
}

func testActor(id string, roles ...authz.Role) authz.Actor {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return authz.Actor{
		ID:            id,
		Roles:         names,
		Permissions:   authz.GrantsForRoles(names),
		EmailVerified: true,
	}
}

func TestCreateRole(t *testing.T) {
	svc := NewService(newFakeRepository(), zap.NewNop())
	admin := testActor("admin-1", authz.RoleAdmin)

	r, err := svc.Create(context.Background(), admin, CreateInput{
		Name:        "moderator",
		Permissions: []string{authz.PermJokeEditAny, authz.PermJokeDeleteAny},
	})
	require.NoError(t, err)
	assert.Equal(t, "moderator", r.Name)
	assert.Len(t, r.Permissions, 2)
}

func TestCreateRoleRequiresAdmin(t *testing.T) {
	svc := NewService(newFakeRepository(), zap.NewNop())

	_, err := svc.Create(context.Background(), testActor("staff-1", authz.RoleStaff), CreateInput{Name: "x"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
}

func TestCreateRoleDuplicateName(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r1", Name: "moderator"}, 0)
	svc := NewService(repo, zap.NewNop())

	_, err := svc.Create(context.Background(), testActor("a1", authz.RoleAdmin), CreateInput{Name: "moderator"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrValidation))
	assert.Contains(t, err.Error(), "The name has already been taken.")
}

func TestCreateRoleUnknownPermission(t *testing.T) {
	svc := NewService(newFakeRepository(), zap.NewNop())

	_, err := svc.Create(context.Background(), testActor("a1", authz.RoleAdmin), CreateInput{
		Name:        "broken",
		Permissions: []string{"no.such.permission"},
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrValidation))
	assert.Contains(t, err.Error(), "The selected permissions are invalid.")
}

func TestUpdateRole(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r1", Name: "moderator", Permissions: []string{authz.PermJokeEditAny}}, 0)
	svc := NewService(repo, zap.NewNop())
	admin := testActor("a1", authz.RoleAdmin)

	// Nil permissions leave the set untouched.
	r, err := svc.Update(context.Background(), admin, "r1", UpdateInput{Name: "editor"})
	require.NoError(t, err)
	assert.Equal(t, "editor", r.Name)
	assert.Equal(t, []string{authz.PermJokeEditAny}, r.Permissions)

	// A non-nil slice replaces it.
	r, err = svc.Update(context.Background(), admin, "r1", UpdateInput{Permissions: []string{authz.PermJokeSearch}})
	require.NoError(t, err)
	assert.Equal(t, []string{authz.PermJokeSearch}, r.Permissions)
}

func TestUpdateSuperuserRoleIsForbidden(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r-root", Name: "superuser", Level: 999}, 1)
	svc := NewService(repo, zap.NewNop())
	root := testActor("root", authz.RoleSuperuser)

	_, err := svc.Update(context.Background(), root, "r-root", UpdateInput{Name: "renamed"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Cannot edit superuser role")
}

func TestDeleteRole(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r1", Name: "moderator"}, 0)
	svc := NewService(repo, zap.NewNop())

	// Deletion is superuser-only.
	err := svc.Delete(context.Background(), testActor("a1", authz.RoleAdmin), "r1")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), testActor("root", authz.RoleSuperuser), "r1"))
	_, err = repo.GetByID(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRoleWithAssignees(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r1", Name: "moderator"}, 3)
	svc := NewService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), testActor("root", authz.RoleSuperuser), "r1")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrConflict))
	assert.Contains(t, err.Error(), "Cannot delete role with 3 assigned user(s)")
}

func TestDeleteSuperuserRoleIsForbidden(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r-root", Name: "superuser", Level: 999}, 1)
	svc := NewService(repo, zap.NewNop())

	err := svc.Delete(context.Background(), testActor("root", authz.RoleSuperuser), "r-root")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Cannot delete superuser role")
}

func TestSearchRoles(t *testing.T) {
	repo := newFakeRepository()
	repo.add(Role{ID: "r1", Name: "moderator"}, 0)
	svc := NewService(repo, zap.NewNop())
	admin := testActor("a1", authz.RoleAdmin)

	roles, err := svc.Search(context.Background(), admin, "mod")
	require.NoError(t, err)
	assert.Len(t, roles, 1)

	_, err = svc.Search(context.Background(), admin, "ghost")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "No roles found matching 'ghost'")
}
