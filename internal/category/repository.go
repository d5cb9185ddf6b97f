package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no category matches the lookup scope.
var ErrNotFound = errors.New("category not found")

// Repository defines the interface for category data operations.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	GetTrashed(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Search(ctx context.Context, keyword string) ([]Category, error)
	ListTrashed(ctx context.Context) ([]Category, error)
	RandomJokes(ctx context.Context, categoryID string, limit int) ([]JokePreview, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL category repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const categoryColumns = `c.id, c.title, c.description, c.created_at, c.updated_at, c.deleted_at`

// Create inserts a category row.
func (r *PostgresRepository) Create(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO categories (id, title, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, c.ID, c.Title, c.Description, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// Update persists title and description on an active category.
func (r *PostgresRepository) Update(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE categories SET title = $2, description = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query, c.ID, c.Title, c.Description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves an active category.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Category, error) {
	return r.getOne(ctx, `c.id = $1 AND c.deleted_at IS NULL`, id)
}

// GetTrashed retrieves a soft-deleted category.
func (r *PostgresRepository) GetTrashed(ctx context.Context, id string) (*Category, error) {
	return r.getOne(ctx, `c.id = $1 AND c.deleted_at IS NOT NULL`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, where, id string) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE %s`, categoryColumns, where)
	return scanCategory(r.pool.QueryRow(ctx, query, id))
}

// List returns all active categories.
func (r *PostgresRepository) List(ctx context.Context) ([]Category, error) {
	return r.listWhere(ctx, `c.deleted_at IS NULL`, `c.title`)
}

// Search returns active categories whose title matches the keyword.
func (r *PostgresRepository) Search(ctx context.Context, keyword string) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM categories c
		WHERE c.deleted_at IS NULL AND c.title ILIKE $1
		ORDER BY c.title
	`, categoryColumns)
	rows, err := r.pool.Query(ctx, query, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// ListTrashed returns every soft-deleted category, newest first.
func (r *PostgresRepository) ListTrashed(ctx context.Context) ([]Category, error) {
	return r.listWhere(ctx, `c.deleted_at IS NOT NULL`, `c.deleted_at DESC`)
}

func (r *PostgresRepository) listWhere(ctx context.Context, where, order string) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM categories c WHERE %s ORDER BY %s`,
		categoryColumns, where, order)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// RandomJokes samples up to limit active jokes from the category.
func (r *PostgresRepository) RandomJokes(ctx context.Context, categoryID string, limit int) ([]JokePreview, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT j.id, j.title, j.content, j.user_id
		FROM jokes j
		JOIN joke_categories jc ON jc.joke_id = j.id
		WHERE jc.category_id = $1 AND j.deleted_at IS NULL
		ORDER BY random()
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("sample category jokes: %w", err)
	}
	defer rows.Close()

	jokes := []JokePreview{}
	for rows.Next() {
		var j JokePreview
		if err := rows.Scan(&j.ID, &j.Title, &j.Content, &j.UserID); err != nil {
			return nil, fmt.Errorf("scan joke preview: %w", err)
		}
		jokes = append(jokes, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate joke previews: %w", err)
	}
	return jokes, nil
}

// SoftDelete stamps deleted_at on an active category. Joke
// associations are left untouched so a restore is lossless.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE categories SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		"soft delete category", id, time.Now().UTC())
}

// Restore clears deleted_at on a trashed category.
func (r *PostgresRepository) Restore(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE categories SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`,
		"restore category", id, time.Now().UTC())
}

// Purge permanently deletes a trashed category. Join rows go with it
// via ON DELETE CASCADE.
func (r *PostgresRepository) Purge(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("purge category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query, op string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	categories := []Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
