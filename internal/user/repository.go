package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jokehub/jokehub/internal/authz"
)

// Sentinel errors returned by the repository. Services translate them
// into API errors.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already taken")
	ErrUnknownRole    = errors.New("unknown role")
)

// Repository defines the interface for user data operations.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetTrashed(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]User, int, error)
	Search(ctx context.Context, keyword string, offset, limit int) ([]User, int, error)
	ListTrashed(ctx context.Context) ([]User, error)
	ListByRole(ctx context.Context, role string) ([]User, error)
	CountByRole(ctx context.Context, role string) (int, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetEmailVerified(ctx context.Context, id string, verifiedAt *time.Time) error
	SetRoles(ctx context.Context, id string, roles []string) error
	AddRole(ctx context.Context, id, role string) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	LoadActor(ctx context.Context, id string) (authz.Actor, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `u.id, u.name, u.email, u.password_hash, u.email_verified_at,
		u.created_at, u.updated_at, u.deleted_at`

// Create inserts a user row. Roles on the struct are persisted in the
// same transaction.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO users (id, name, email, password_hash, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.EmailVerifiedAt, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if err := setRolesTx(ctx, tx, u.ID, u.Roles); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID retrieves an active user by ID, roles included.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `u.id = $1 AND u.deleted_at IS NULL`, id)
}

// GetByEmail retrieves an active user by email address.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `u.email = $1 AND u.deleted_at IS NULL`, email)
}

// GetTrashed retrieves a soft-deleted user by ID.
func (r *PostgresRepository) GetTrashed(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `u.id = $1 AND u.deleted_at IS NOT NULL`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users u WHERE %s`, userColumns, where)
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadRoles(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns a page of active users and the total count.
func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]User, int, error) {
	return r.listPage(ctx, ``, nil, offset, limit)
}

// Search returns a page of active users whose name or email matches
// the keyword, case-insensitively.
func (r *PostgresRepository) Search(ctx context.Context, keyword string, offset, limit int) ([]User, int, error) {
	where := `AND (u.name ILIKE $3 OR u.email ILIKE $3)`
	return r.listPage(ctx, where, []any{"%" + keyword + "%"}, offset, limit)
}

func (r *PostgresRepository) listPage(ctx context.Context, extraWhere string, extraArgs []any, offset, limit int) ([]User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM users u WHERE u.deleted_at IS NULL %s`,
		replacePlaceholders(extraWhere, 2))
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, extraArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users u
		WHERE u.deleted_at IS NULL %s
		ORDER BY u.created_at DESC
		OFFSET $1 LIMIT $2
	`, userColumns, extraWhere)
	args := append([]any{offset, limit}, extraArgs...)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadRolesBulk(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListTrashed returns every soft-deleted user.
func (r *PostgresRepository) ListTrashed(ctx context.Context) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM users u
		WHERE u.deleted_at IS NOT NULL
		ORDER BY u.deleted_at DESC
	`, userColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trashed users: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadRolesBulk(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByRole returns every active user holding the named role.
func (r *PostgresRepository) ListByRole(ctx context.Context, role string) ([]User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = $1 AND u.deleted_at IS NULL
		ORDER BY u.created_at
	`, userColumns)
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadRolesBulk(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole counts active users holding the named role.
func (r *PostgresRepository) CountByRole(ctx context.Context, role string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT COUNT(*) FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles r ON r.id = ur.role_id
		WHERE r.name = $1 AND u.deleted_at IS NULL
	`
	var n int
	if err := r.pool.QueryRow(ctx, query, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users by role: %w", err)
	}
	return n, nil
}

// Update persists name, email and email_verified_at.
func (r *PostgresRepository) Update(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		UPDATE users
		SET name = $2, email = $3, email_verified_at = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, u.ID, u.Name, u.Email, u.EmailVerifiedAt, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEmailVerified sets or clears the verification timestamp.
func (r *PostgresRepository) SetEmailVerified(ctx context.Context, id string, verifiedAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `UPDATE users SET email_verified_at = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, verifiedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set email verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRoles replaces the user's role set.
func (r *PostgresRepository) SetRoles(ctx context.Context, id string, roles []string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	if err := setRolesTx(ctx, tx, id, roles); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// AddRole grants a role to the user, ignoring duplicates.
func (r *PostgresRepository) AddRole(ctx context.Context, id, role string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, r.id FROM roles r WHERE r.name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("add role: %w", err)
	}
	// Zero rows means either the role name does not exist or the user
	// already holds it. Distinguish by probing the roles table.
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists); err != nil {
			return fmt.Errorf("check role: %w", err)
		}
		if !exists {
			return ErrUnknownRole
		}
	}
	return nil
}

// SoftDelete stamps deleted_at on an active user.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears deleted_at on a trashed user.
func (r *PostgresRepository) Restore(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `UPDATE users SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`
	tag, err := r.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("restore user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge permanently deletes a trashed user. Role bindings go with the
// row via ON DELETE CASCADE.
func (r *PostgresRepository) Purge(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("purge user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LoadActor builds the authorization snapshot for an active user:
// roles, the effective permission set, and verification state.
func (r *PostgresRepository) LoadActor(ctx context.Context, id string) (authz.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return authz.Actor{}, err
	}

	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
	`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return authz.Actor{}, fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	perms := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return authz.Actor{}, fmt.Errorf("scan permission: %w", err)
		}
		perms[name] = true
	}
	if err := rows.Err(); err != nil {
		return authz.Actor{}, fmt.Errorf("iterate permissions: %w", err)
	}

	return authz.Actor{
		ID:            u.ID,
		Roles:         u.Roles,
		Permissions:   perms,
		EmailVerified: u.EmailVerified(),
	}, nil
}

func (r *PostgresRepository) loadRoles(ctx context.Context, u *User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`, u.ID)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	u.Roles = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan role: %w", err)
		}
		u.Roles = append(u.Roles, name)
	}
	return rows.Err()
}

func (r *PostgresRepository) loadRolesBulk(ctx context.Context, users []User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, len(users))
	index := make(map[string]*User, len(users))
	for i := range users {
		users[i].Roles = []string{}
		ids[i] = users[i].ID
		index[users[i].ID] = &users[i]
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ur.user_id, r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ANY($1)
		ORDER BY r.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, name string
		if err := rows.Scan(&userID, &name); err != nil {
			return fmt.Errorf("scan role: %w", err)
		}
		if u, ok := index[userID]; ok {
			u.Roles = append(u.Roles, name)
		}
	}
	return rows.Err()
}

func setRolesTx(ctx context.Context, tx pgx.Tx, userID string, roles []string) error {
	for _, role := range roles {
		tag, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, r.id FROM roles r WHERE r.name = $2
			ON CONFLICT (user_id, role_id) DO NOTHING
		`, userID, role)
		if err != nil {
			return fmt.Errorf("assign role %s: %w", role, err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists); err != nil {
				return fmt.Errorf("check role: %w", err)
			}
			if !exists {
				return ErrUnknownRole
			}
		}
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.EmailVerifiedAt,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// replacePlaceholders shifts $N placeholders down for queries that
// drop leading arguments, e.g. the count variant of a paged query.
func replacePlaceholders(where string, by int) string {
	out := where
	for n := 3; n <= 9; n++ {
		out = strings.ReplaceAll(out, fmt.Sprintf("$%d", n), fmt.Sprintf("$%d", n-by))
	}
	return out
}
