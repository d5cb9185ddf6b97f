package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/user"
)

type fakeRepository struct {
	users          map[string]*user.User
	duplicateEmail string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{users: make(map[string]*user.User)}
}

func (f *fakeRepository) add(u user.User) {
	stored := u
	f.users[u.ID] = &stored
}

func (f *fakeRepository) Create(ctx context.Context, u *user.User) error {
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, user.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.DeletedAt == nil {
			out := *u
			return &out, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeRepository) GetTrashed(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt == nil {
		return nil, user.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeRepository) List(ctx context.Context, offset, limit int) ([]user.User, int, error) {
	return nil, 0, nil
}

func (f *fakeRepository) Search(ctx context.Context, keyword string, offset, limit int) ([]user.User, int, error) {
	return nil, 0, nil
}

func (f *fakeRepository) ListTrashed(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

func (f *fakeRepository) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeRepository) CountByRole(ctx context.Context, role string) (int, error) {
	return 0, nil
}

func (f *fakeRepository) Update(ctx context.Context, u *user.User) error {
	if u.Email == f.duplicateEmail {
		return user.ErrDuplicateEmail
	}
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt *time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.EmailVerifiedAt = verifiedAt
	return nil
}

func (f *fakeRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	return nil
}

func (f *fakeRepository) AddRole(ctx context.Context, id, role string) error {
	return nil
}

func (f *fakeRepository) SoftDelete(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

func (f *fakeRepository) Restore(ctx context.Context, id string) error {
	return nil
}

func (f *fakeRepository) Purge(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeRepository) LoadActor(ctx context.Context, id string) (authz.Actor, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return authz.Actor{}, user.ErrNotFound
	}
	return authz.Actor{ID: u.ID, Roles: u.Roles, Permissions: authz.GrantsForRoles(u.Roles)}, nil
}

type recordingTrasher struct {
	trashed []string
}

func (r *recordingTrasher) TrashByOwner(ctx context.Context, userID string) error {
	r.trashed = append(r.trashed, userID)
	return nil
}

type recordingPurger struct {
	purged []string
}

func (r *recordingPurger) PurgeByUser(ctx context.Context, userID string) (int64, error) {
	r.purged = append(r.purged, userID)
	return 3, nil
}

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) RevokeAll(ctx context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
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
	svc     *Service
	repo    *fakeRepository
	jokes   *recordingTrasher
	votes   *recordingPurger
	tokens  *recordingRevoker
	pw      *auth.PasswordService
	verTime time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepository()
	jokes := &recordingTrasher{}
	votes := &recordingPurger{}
	tokens := &recordingRevoker{}
	pw := auth.NewPasswordService()
	svc := NewService(repo, jokes, votes, pw, tokens, zap.NewNop())

	env := &testEnv{svc: svc, repo: repo, jokes: jokes, votes: votes, tokens: tokens, pw: pw}
	env.verTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	hash, err := pw.Hash("secret1")
	require.NoError(t, err)
	repo.add(user.User{
		ID:              "u1",
		Name:            "Alice",
		Email:           "alice@example.com",
		PasswordHash:    hash,
		EmailVerifiedAt: &env.verTime,
		Roles:           []string{"client"},
	})
	return env
}

func TestUpdateKeepsVerificationWhenEmailUnchanged(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Update(context.Background(), testActor("u1", authz.RoleClient), UpdateInput{
		Name:  "Alice Renamed",
		Email: "alice@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Renamed", u.Name)
	require.NotNil(t, u.EmailVerifiedAt)
	assert.True(t, env.verTime.Equal(*u.EmailVerifiedAt))
}

func TestUpdateEmailChangeClearsVerification(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.svc.Update(context.Background(), testActor("u1", authz.RoleClient), UpdateInput{
		Name:  "Alice",
		Email: "new@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Nil(t, u.EmailVerifiedAt)

	stored := env.repo.users["u1"]
	assert.Nil(t, stored.EmailVerifiedAt)
}

func TestUpdateDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.repo.duplicateEmail = "taken@example.com"

	_, err := env.svc.Update(context.Background(), testActor("u1", authz.RoleClient), UpdateInput{
		Name:  "Alice",
		Email: "taken@example.com",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrValidation))
	assert.Contains(t, err.Error(), "The email has already been taken.")
}

func TestUpdateRequiresPermission(t *testing.T) {
	env := newTestEnv(t)

	// Guests never hold the profile permission.
	_, err := env.svc.Update(context.Background(), testActor("u1", authz.RoleGuest), UpdateInput{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Delete(context.Background(), testActor("u1", authz.RoleClient), DeleteInput{Password: "secret1"})
	require.NoError(t, err)

	// Tokens revoked, jokes trashed, votes purged, account soft-deleted.
	assert.Equal(t, []string{"u1"}, env.tokens.revoked)
	assert.Equal(t, []string{"u1"}, env.jokes.trashed)
	assert.Equal(t, []string{"u1"}, env.votes.purged)
	require.NotNil(t, env.repo.users["u1"].DeletedAt)

	_, err = env.repo.GetByID(context.Background(), "u1")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestDeleteWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Delete(context.Background(), testActor("u1", authz.RoleClient), DeleteInput{Password: "wrong"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Incorrect password")

	// Nothing ran.
	assert.Empty(t, env.tokens.revoked)
	assert.Empty(t, env.jokes.trashed)
	assert.Nil(t, env.repo.users["u1"].DeletedAt)
}

func TestDeleteGhostAccount(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Delete(context.Background(), testActor("ghost", authz.RoleClient), DeleteInput{Password: "secret1"})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
}
