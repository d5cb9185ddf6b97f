package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jokehub/jokehub/internal/authz"
)

// InitializeSchema creates all tables and indexes the API relies on.
// Statements are idempotent so the call is safe on every startup.
func InitializeSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email_verified_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			level INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS permissions (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS role_permissions (
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			PRIMARY KEY (role_id, permission_id)
		)`,
		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS jokes (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS joke_categories (
			joke_id UUID NOT NULL REFERENCES jokes(id) ON DELETE CASCADE,
			category_id UUID NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			PRIMARY KEY (joke_id, category_id)
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joke_id UUID NOT NULL REFERENCES jokes(id) ON DELETE CASCADE,
			rating SMALLINT NOT NULL CHECK (rating IN (-1, 1)),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, joke_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON users(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jokes_user_id ON jokes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_jokes_deleted_at ON jokes(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_deleted_at ON categories(deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_joke_id ON votes(joke_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

// SeedAccessControl provisions the built-in roles, the permission
// registry and the per-role grants. Existing rows are left untouched
// so runtime role edits survive restarts.
func SeedAccessControl(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, role := range authz.AllRoles {
		_, err := tx.Exec(ctx, `
			INSERT INTO roles (id, name, level)
			VALUES (gen_random_uuid(), $1, $2)
			ON CONFLICT (name) DO NOTHING
		`, string(role), authz.RoleLevel[role])
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role, err)
		}
	}

	for _, perm := range authz.AllPermissions() {
		_, err := tx.Exec(ctx, `
			INSERT INTO permissions (id, name)
			VALUES (gen_random_uuid(), $1)
			ON CONFLICT (name) DO NOTHING
		`, perm)
		if err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", perm, err)
		}
	}

	for role, grants := range authz.RoleGrants {
		for _, perm := range grants {
			_, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT r.id, p.id FROM roles r, permissions p
				WHERE r.name = $1 AND p.name = $2
				ON CONFLICT DO NOTHING
			`, string(role), perm)
			if err != nil {
				return fmt.Errorf("failed to seed grant %s/%s: %w", role, perm, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	return nil
}
