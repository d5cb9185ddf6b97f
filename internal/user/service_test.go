package user

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
)

// fakeRepository is an in-memory user store.
type fakeRepository struct {
	users map[string]*User
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[string]*User)}
}

func (f *fakeRepository) add(u User) {
	copy := u
	f.users[u.ID] = &copy
}

func (f *fakeRepository) Create(ctx context.Context, u *User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	for _, r := range u.Roles {
		if !authz.IsValidRole(r) {
			return ErrUnknownRole
		}
	}
	copy := *u
	f.users[u.ID] = &copy
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email && u.DeletedAt == nil {
			copy := *u
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepository) GetTrashed(ctx context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt == nil {
		return nil, ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeRepository) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		if u.DeletedAt == nil {
			out = append(out, *u)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeRepository) Search(ctx context.Context, keyword string, offset, limit int) ([]User, int, error) {
	var out []User
	for _, u := range f.users {
		if u.DeletedAt != nil {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(keyword)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(keyword)) {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepository) ListTrashed(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range f.users {
		if u.DeletedAt != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListByRole(ctx context.Context, role string) ([]User, error) {
	var out []User
	for _, u := range f.users {
		if u.DeletedAt != nil {
			continue
		}
		for _, r := range u.Roles {
			if r == role {
				out = append(out, *u)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepository) CountByRole(ctx context.Context, role string) (int, error) {
	users, _ := f.ListByRole(ctx, role)
	return len(users), nil
}

func (f *fakeRepository) Update(ctx context.Context, u *User) error {
	stored, ok := f.users[u.ID]
	if !ok || stored.DeletedAt != nil {
		return ErrNotFound
	}
	for _, other := range f.users {
		if other.ID != u.ID && other.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	copy := *u
	f.users[u.ID] = &copy
	return nil
}

func (f *fakeRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt *time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerifiedAt = verifiedAt
	return nil
}

func (f *fakeRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, r := range roles {
		if !authz.IsValidRole(r) {
			return ErrUnknownRole
		}
	}
	u.Roles = roles
	return nil
}

func (f *fakeRepository) AddRole(ctx context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok {
		return ErrNotFound
	}
	if !authz.IsValidRole(role) {
		return ErrUnknownRole
	}
	u.Roles = append(u.Roles, role)
	return nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

func (f *fakeRepository) Restore(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok || u.DeletedAt == nil {
		return ErrNotFound
	}
	u.DeletedAt = nil
	return nil
}

func (f *fakeRepository) Purge(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok || u.DeletedAt == nil {
		return ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeRepository) LoadActor(ctx context.Context, id string) (authz.Actor, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return authz.Actor{}, ErrNotFound
	}
	return authz.Actor{
		ID:            u.ID,
		Roles:         u.Roles,
		Permissions:   authz.GrantsForRoles(u.Roles),
		EmailVerified: u.EmailVerifiedAt != nil,
	}, nil
}

// recordingTrasher records cascade calls.
type recordingTrasher struct{ owners []string }

func (r *recordingTrasher) TrashByOwner(ctx context.Context, ownerID string) error {
	r.owners = append(r.owners, ownerID)
	return nil
}

type recordingPurger struct{ users []string }

func (r *recordingPurger) PurgeByUser(ctx context.Context, userID string) (int64, error) {
	r.users = append(r.users, userID)
	return 2, nil
}

type noopMailer struct{ sent []string }

func (m *noopMailer) SendPasswordResetLink(ctx context.Context, to, link string) error {
	m.sent = append(m.sent, to)
	return nil
}

func (m *noopMailer) SendVerificationLink(ctx context.Context, to, link string) error {
	m.sent = append(m.sent, to)
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

type testEnv struct {
	svc    *Service
	repo   *fakeRepository
	jokes  *recordingTrasher
	votes  *recordingPurger
	mailer *noopMailer
}

func newTestEnv() *testEnv {
	repo := newFakeRepository()
	jokes := &recordingTrasher{}
	votes := &recordingPurger{}
	mailer := &noopMailer{}
	svc := NewService(repo, jokes, votes, auth.NewPasswordService(), mailer, zap.NewNop(), 15, "http://localhost/verify")
	return &testEnv{svc: svc, repo: repo, jokes: jokes, votes: votes, mailer: mailer}
}

func TestCreateUserWithRole(t *testing.T) {
	env := newTestEnv()
	admin := testActor("admin-1", authz.RoleAdmin)

	u, err := env.svc.Create(context.Background(), admin, CreateInput{
		Name:     "New Staff",
		Email:    "staff@example.com",
		Password: "password123",
		Role:     "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"staff"}, u.Roles)
	assert.Equal(t, []string{"staff@example.com"}, env.mailer.sent, "verification email sent")

	// Admins cannot create other admins.
	_, err = env.svc.Create(context.Background(), admin, CreateInput{
		Name:     "New Admin",
		Email:    "admin@example.com",
		Password: "password123",
		Role:     "admin",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "u1", Email: "taken@example.com"})
	root := testActor("root", authz.RoleSuperuser)

	_, err := env.svc.Create(context.Background(), root, CreateInput{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "password123",
		Role:     "client",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrValidation))
	assert.Contains(t, err.Error(), "The email has already been taken.")
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "victim", Email: "v@example.com", Roles: []string{"client"}})
	staff := testActor("staff-1", authz.RoleStaff)

	require.NoError(t, env.svc.Delete(context.Background(), staff, "victim"))

	assert.Equal(t, []string{"victim"}, env.jokes.owners, "jokes trashed")
	assert.Equal(t, []string{"victim"}, env.votes.users, "votes purged")
	_, err := env.repo.GetByID(context.Background(), "victim")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.repo.GetTrashed(context.Background(), "victim")
	assert.NoError(t, err, "user is trashed, not purged")
}

func TestDeleteUserCeiling(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "target", Email: "s@example.com", Roles: []string{"staff"}})
	staff := testActor("staff-1", authz.RoleStaff)

	err := env.svc.Delete(context.Background(), staff, "target")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Empty(t, env.jokes.owners, "cascade must not run on a denied delete")
}

func TestGetResolvesTargetBeforePolicy(t *testing.T) {
	env := newTestEnv()
	client := testActor("client-1", authz.RoleClient)

	// Missing target reads as 404 even for an actor without browse
	// rights.
	_, err := env.svc.Get(context.Background(), client, "ghost")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))

	// Existing target the actor may not see reads as 403.
	env.repo.add(User{ID: "other", Email: "o@example.com", Roles: []string{"client"}})
	_, err = env.svc.Get(context.Background(), client, "other")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	// Self is always visible.
	env.repo.add(User{ID: "client-1", Email: "me@example.com", Roles: []string{"client"}})
	_, err = env.svc.Get(context.Background(), client, "client-1")
	assert.NoError(t, err)
}

func TestAssignRole(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "target", Email: "t@example.com", Roles: []string{"client"}})
	admin := testActor("admin-1", authz.RoleAdmin)

	u, err := env.svc.AssignRole(context.Background(), admin, "target", "staff")
	require.NoError(t, err)
	assert.Equal(t, []string{"staff"}, u.Roles)

	// Promoting to admin requires user.add.admin.
	_, err = env.svc.AssignRole(context.Background(), admin, "target", "admin")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
}

func TestSearchNoResults(t *testing.T) {
	env := newTestEnv()
	staff := testActor("staff-1", authz.RoleStaff)

	_, _, err := env.svc.Search(context.Background(), staff, "nobody", 1)
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "No users found")
}

func TestRestoreAllSkipsOutOfReachTargets(t *testing.T) {
	env := newTestEnv()
	now := time.Now().UTC()
	env.repo.add(User{ID: "c1", Email: "c1@example.com", Roles: []string{"client"}, DeletedAt: &now})
	env.repo.add(User{ID: "a1", Email: "a1@example.com", Roles: []string{"admin"}, DeletedAt: &now})
	root := testActor("root", authz.RoleSuperuser)

	require.NoError(t, env.svc.RestoreAll(context.Background(), root))

	// Superuser reaches both targets.
	_, err := env.repo.GetByID(context.Background(), "c1")
	assert.NoError(t, err)
	_, err = env.repo.GetByID(context.Background(), "a1")
	assert.NoError(t, err)
}

func TestTrashViewIsSuperuserOnly(t *testing.T) {
	env := newTestEnv()
	now := time.Now().UTC()
	env.repo.add(User{ID: "c1", Email: "c1@example.com", Roles: []string{"client"}, DeletedAt: &now})

	_, err := env.svc.Trash(context.Background(), testActor("admin-1", authz.RoleAdmin))
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))

	users, err := env.svc.Trash(context.Background(), testActor("root", authz.RoleSuperuser))
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestTrashEmptyReturnsNotFound(t *testing.T) {
	env := newTestEnv()
	root := testActor("root", authz.RoleSuperuser)

	_, err := env.svc.Trash(context.Background(), root)
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "No soft deleted users found")
}

func TestPurgeOneRequiresTrashedTarget(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "active", Email: "a@example.com", Roles: []string{"client"}})
	root := testActor("root", authz.RoleSuperuser)

	err := env.svc.PurgeOne(context.Background(), root, "active")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "User not found in trash")
}

func TestLoadActorForDeletedUser(t *testing.T) {
	env := newTestEnv()
	now := time.Now().UTC()
	env.repo.add(User{ID: "gone", Email: "g@example.com", Roles: []string{"client"}, DeletedAt: &now})

	_, err := env.svc.LoadActor(context.Background(), "gone")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Unauthenticated")
}

func TestUpdateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.repo.add(User{ID: "u1", Email: "one@example.com", Roles: []string{"client"}})
	env.repo.add(User{ID: "u2", Email: "two@example.com", Roles: []string{"client"}})
	root := testActor("root", authz.RoleSuperuser)

	_, err := env.svc.Update(context.Background(), root, "u2", UpdateInput{Email: "one@example.com"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrValidation))
}
