package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound          = errors.New("role not found")
	ErrDuplicateName     = errors.New("role name already taken")
	ErrUnknownPermission = errors.New("unknown permission")
)

// Repository defines the interface for role data operations.
type Repository interface {
	Create(ctx context.Context, r *Role) error
	Update(ctx context.Context, r *Role, syncPermissions bool) error
	GetByID(ctx context.Context, id string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Search(ctx context.Context, keyword string) ([]Role, error)
	CountAssignees(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL role repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a role and binds its permissions.
func (r *PostgresRepository) Create(ctx context.Context, role *Role) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO roles (id, name, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, query, role.ID, role.Name, role.Level, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert role: %w", err)
	}

	if err := syncPermissionsTx(ctx, tx, role.ID, role.Permissions); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update persists the role name and, when syncPermissions is set,
// replaces the permission bindings.
func (r *PostgresRepository) Update(ctx context.Context, role *Role, syncPermissions bool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE roles SET name = $2, updated_at = $3 WHERE id = $1`,
		role.ID, role.Name, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if syncPermissions {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, role.ID); err != nil {
			return fmt.Errorf("clear role permissions: %w", err)
		}
		if err := syncPermissionsTx(ctx, tx, role.ID, role.Permissions); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID retrieves a role with its permission names.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Role, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	role, err := scanRole(r.pool.QueryRow(ctx,
		`SELECT id, name, level, created_at, updated_at FROM roles WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadPermissions(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// List returns all roles with their permissions.
func (r *PostgresRepository) List(ctx context.Context) ([]Role, error) {
	return r.listWhere(ctx, ``, nil)
}

// Search returns roles whose name matches the keyword.
func (r *PostgresRepository) Search(ctx context.Context, keyword string) ([]Role, error) {
	return r.listWhere(ctx, `WHERE name ILIKE $1`, []any{"%" + keyword + "%"})
}

func (r *PostgresRepository) listWhere(ctx context.Context, where string, args []any) ([]Role, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT id, name, level, created_at, updated_at FROM roles %s ORDER BY level`, where)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	for i := range roles {
		if err := r.loadPermissions(ctx, &roles[i]); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// CountAssignees counts active users holding the role.
func (r *PostgresRepository) CountAssignees(ctx context.Context, id string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT COUNT(*) FROM user_roles ur
		JOIN users u ON u.id = ur.user_id
		WHERE ur.role_id = $1 AND u.deleted_at IS NULL
	`
	var n int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count role assignees: %w", err)
	}
	return n, nil
}

// Delete removes a role. Permission bindings go with it via ON DELETE
// CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) loadPermissions(ctx context.Context, role *Role) error {
	rows, err := r.pool.Query(ctx, `
		SELECT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`, role.ID)
	if err != nil {
		return fmt.Errorf("load role permissions: %w", err)
	}
	defer rows.Close()

	role.Permissions = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan permission: %w", err)
		}
		role.Permissions = append(role.Permissions, name)
	}
	return rows.Err()
}

func syncPermissionsTx(ctx context.Context, tx pgx.Tx, roleID string, perms []string) error {
	for _, perm := range perms {
		tag, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, p.id FROM permissions p WHERE p.name = $2
			ON CONFLICT (role_id, permission_id) DO NOTHING
		`, roleID, perm)
		if err != nil {
			return fmt.Errorf("bind permission %s: %w", perm, err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM permissions WHERE name = $1)`, perm).Scan(&exists); err != nil {
				return fmt.Errorf("check permission: %w", err)
			}
			if !exists {
				return ErrUnknownPermission
			}
		}
	}
	return nil
}

func scanRole(row pgx.Row) (*Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Level, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
