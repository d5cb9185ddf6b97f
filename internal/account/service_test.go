package account

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jokehub/jokehub/internal/auth"
	"github.com/jokehub/jokehub/internal/authz"
	commonerrors "github.com/jokehub/jokehub/internal/common/errors"
	"github.com/jokehub/jokehub/internal/email"
	"github.com/jokehub/jokehub/internal/user"
)

// fakeUserRepository implements user.Repository in memory with just
// enough behavior for the auth flows.
type fakeUserRepository struct {
	users map[string]*user.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*user.User)}
}

func (f *fakeUserRepository) add(u user.User) {
	copy := u
	f.users[u.ID] = &copy
}

func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return user.ErrDuplicateEmail
		}
	}
	copy := *u
	f.users[u.ID] = &copy
	return nil
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, user.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.DeletedAt == nil {
			copy := *u
			return &copy, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepository) GetTrashed(ctx context.Context, id string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt == nil {
		return nil, user.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserRepository) List(ctx context.Context, offset, limit int) ([]user.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepository) Search(ctx context.Context, keyword string, offset, limit int) ([]user.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepository) ListTrashed(ctx context.Context) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) ListByRole(ctx context.Context, role string) ([]user.User, error) {
	var out []user.User
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

func (f *fakeUserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	users, _ := f.ListByRole(ctx, role)
	return len(users), nil
}

func (f *fakeUserRepository) Update(ctx context.Context, u *user.User) error {
	copy := *u
	f.users[u.ID] = &copy
	return nil
}

func (f *fakeUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt *time.Time) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.EmailVerifiedAt = verifiedAt
	return nil
}

func (f *fakeUserRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Roles = roles
	return nil
}

func (f *fakeUserRepository) AddRole(ctx context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.Roles = append(u.Roles, role)
	return nil
}

func (f *fakeUserRepository) SoftDelete(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	return nil
}

func (f *fakeUserRepository) Restore(ctx context.Context, id string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.DeletedAt = nil
	return nil
}

func (f *fakeUserRepository) Purge(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepository) LoadActor(ctx context.Context, id string) (authz.Actor, error) {
	u, ok := f.users[id]
	if !ok || u.DeletedAt != nil {
		return authz.Actor{}, user.ErrNotFound
	}
	return authz.Actor{
		ID:            u.ID,
		Roles:         u.Roles,
		Permissions:   authz.GrantsForRoles(u.Roles),
		EmailVerified: u.EmailVerifiedAt != nil,
	}, nil
}

type recordingMailer struct {
	resetLinks     []string
	verifyLinks    []string
	lastVerifyLink string
}

func (m *recordingMailer) SendPasswordResetLink(ctx context.Context, to, link string) error {
	m.resetLinks = append(m.resetLinks, to)
	return nil
}

func (m *recordingMailer) SendVerificationLink(ctx context.Context, to, link string) error {
	m.verifyLinks = append(m.verifyLinks, to)
	m.lastVerifyLink = link
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
	repo   *fakeUserRepository
	tokens *auth.TokenService
	mailer *recordingMailer
	pw     *auth.PasswordService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := newFakeUserRepository()
	pw := auth.NewPasswordService()
	tokens := auth.NewTokenService([]byte("test-secret"), client, zap.NewNop())
	mailer := &recordingMailer{}
	svc := NewService(repo, pw, tokens, mailer, zap.NewNop(), "http://localhost/reset", "http://localhost/verify")
	return &testEnv{svc: svc, repo: repo, tokens: tokens, mailer: mailer, pw: pw}
}

func (e *testEnv) addUserWithPassword(t *testing.T, id, emailAddr, password string, roles ...string) {
	t.Helper()
	hash, err := e.pw.Hash(password)
	require.NoError(t, err)
	e.repo.add(user.User{
		ID:           id,
		Name:         id,
		Email:        emailAddr,
		PasswordHash: hash,
		Roles:        roles,
	})
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, token, err := env.svc.Register(ctx, RegisterInput{
		Name:                 "Alice",
		Email:                "alice@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"client"}, u.Roles)
	assert.NotEmpty(t, token)
	assert.Equal(t, []string{"alice@example.com"}, env.mailer.verifyLinks)
	assert.Equal(t, email.VerificationLink("http://localhost/verify", u.ID, u.Email), env.mailer.lastVerifyLink)

	// The issued token resolves back to the new account.
	claims, err := env.tokens.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "taken@example.com", "secret1", "client")

	_, _, err := env.svc.Register(context.Background(), RegisterInput{
		Name:                 "Dup",
		Email:                "taken@example.com",
		Password:             "secret1",
		PasswordConfirmation: "secret1",
	})
	require.Error(t, err)
	// Duplicate registration reports the same opaque message and 401
	// as a malformed payload so addresses cannot be probed.
	assert.Equal(t, 401, commonerrors.GetStatusCode(err))
	assert.Contains(t, err.Error(), "Registration details error")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	u, token, err := env.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.NotEmpty(t, token)

	// Wrong password and unknown email fail identically.
	_, _, err = env.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.Contains(t, err.Error(), "Invalid credentials")
	_, _, err = env.svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	_, token, err := env.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, "u1"))

	_, err = env.tokens.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	hash := email.VerificationHash("alice@example.com")

	msg, err := env.svc.VerifyEmail(ctx, "u1", hash)
	require.NoError(t, err)
	assert.Equal(t, "Email verified", msg)
	require.NotNil(t, env.repo.users["u1"].EmailVerifiedAt)

	// Clicking the link again is a no-op.
	msg, err = env.svc.VerifyEmail(ctx, "u1", hash)
	require.NoError(t, err)
	assert.Equal(t, "Email already verified", msg)
}

func TestVerifyEmailRejectsBadLink(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	_, err := env.svc.VerifyEmail(ctx, "u1", email.VerificationHash("other@example.com"))
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Invalid verification link")
	assert.Nil(t, env.repo.users["u1"].EmailVerifiedAt)

	_, err = env.svc.VerifyEmail(ctx, "ghost", "whatever")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	u, err := env.svc.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = env.svc.Profile(ctx, "ghost")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
}

func TestForgotPasswordIsSilent(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "secret1", "client")
	ctx := context.Background()

	// Known address: link sent.
	env.svc.ForgotPassword(ctx, "alice@example.com")
	assert.Equal(t, []string{"alice@example.com"}, env.mailer.resetLinks)

	// Unknown address: no error, no link, nothing observable.
	env.svc.ForgotPassword(ctx, "ghost@example.com")
	assert.Len(t, env.mailer.resetLinks, 1)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "oldpass", "client")
	ctx := context.Background()

	err := env.svc.ResetPassword(ctx, "u1", ResetPasswordInput{
		CurrentPassword:         "oldpass",
		NewPassword:             "newpass",
		NewPasswordConfirmation: "newpass",
	})
	require.NoError(t, err)

	// The stored hash now verifies the new password only.
	u, err := env.repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.NoError(t, env.pw.Verify("newpass", u.PasswordHash))
	assert.Error(t, env.pw.Verify("oldpass", u.PasswordHash))
}

func TestResetPasswordWrongCurrent(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "oldpass", "client")

	err := env.svc.ResetPassword(context.Background(), "u1", ResetPasswordInput{
		CurrentPassword:         "nope",
		NewPassword:             "newpass",
		NewPasswordConfirmation: "newpass",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "Current password is incorrect")
}

func TestResetPasswordMustChange(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "u1", "alice@example.com", "samepass", "client")

	err := env.svc.ResetPassword(context.Background(), "u1", ResetPasswordInput{
		CurrentPassword:         "samepass",
		NewPassword:             "samepass",
		NewPasswordConfirmation: "samepass",
	})
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrDomainRule))
	assert.Contains(t, err.Error(), "New password must be different from current password")
}

func TestResetPasswordForUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "c1", "client@example.com", "secret1", "client")
	env.addUserWithPassword(t, "s1", "staff@example.com", "secret1", "staff")
	ctx := context.Background()

	staff := testActor("staff-actor", authz.RoleStaff)

	msg, err := env.svc.ResetPasswordForUser(ctx, staff, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Password reset link sent to client@example.com", msg)

	// Staff cannot reach other staff.
	_, err = env.svc.ResetPasswordForUser(ctx, staff, "s1")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Cannot reset password for this user")
}

func TestForceLogoutUser(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "c1", "client@example.com", "secret1", "client")
	env.addUserWithPassword(t, "a2", "admin2@example.com", "secret1", "admin")
	ctx := context.Background()

	token, err := env.tokens.Issue(ctx, "c1", []string{"client"})
	require.NoError(t, err)

	admin := testActor("admin-actor", authz.RoleAdmin)
	require.NoError(t, env.svc.ForceLogoutUser(ctx, admin, "c1"))

	_, err = env.tokens.Validate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// Admin-on-admin hits the ceiling.
	err = env.svc.ForceLogoutUser(ctx, admin, "a2")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Cannot logout this user")
}

func TestForceLogoutRole(t *testing.T) {
	env := newTestEnv(t)
	env.addUserWithPassword(t, "c1", "c1@example.com", "secret1", "client")
	env.addUserWithPassword(t, "c2", "c2@example.com", "secret1", "client")
	ctx := context.Background()

	t1, err := env.tokens.Issue(ctx, "c1", []string{"client"})
	require.NoError(t, err)
	t2, err := env.tokens.Issue(ctx, "c2", []string{"client"})
	require.NoError(t, err)

	admin := testActor("admin-actor", authz.RoleAdmin)
	require.NoError(t, env.svc.ForceLogoutRole(ctx, admin, "client"))

	_, err = env.tokens.Validate(ctx, t1)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	_, err = env.tokens.Validate(ctx, t2)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestForceLogoutRoleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testActor("admin-actor", authz.RoleAdmin)

	// Unknown and guest roles are rejected outright.
	err := env.svc.ForceLogoutRole(ctx, admin, "wizard")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrBadRequest))
	err = env.svc.ForceLogoutRole(ctx, admin, "guest")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrBadRequest))

	// The ceiling holds for the role form too.
	err = env.svc.ForceLogoutRole(ctx, admin, "admin")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrForbidden))
	assert.Contains(t, err.Error(), "Cannot logout this role")

	// An empty role is a 404.
	err = env.svc.ForceLogoutRole(ctx, admin, "staff")
	assert.True(t, commonerrors.IsErrorCode(err, commonerrors.ErrNotFound))
	assert.Contains(t, err.Error(), "No users found with role staff")
}
