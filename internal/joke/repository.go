package joke

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
	ErrNotFound        = errors.New("joke not found")
	ErrUnknownCategory = errors.New("unknown category")
)

// visibleFilter keeps only jokes attached to at least one live
// category other than the "Unknown" sentinel. Client actors and the
// public random endpoint see the catalog through this filter.
const visibleFilter = `EXISTS (
		SELECT 1 FROM joke_categories jc
		JOIN categories c ON c.id = jc.category_id
		WHERE jc.joke_id = j.id AND c.title <> 'Unknown' AND c.deleted_at IS NULL
	)`

// Repository defines the interface for joke data operations.
type Repository interface {
	Create(ctx context.Context, j *Joke) error
	Update(ctx context.Context, j *Joke) error
	GetByID(ctx context.Context, id string) (*Joke, error)
	GetTrashed(ctx context.Context, id string) (*Joke, error)
	List(ctx context.Context, visibleOnly bool, offset, limit int) ([]Joke, int, error)
	Search(ctx context.Context, keyword string, visibleOnly bool) ([]Joke, error)
	Random(ctx context.Context) (*Joke, error)
	HasVisibleCategory(ctx context.Context, id string) (bool, error)
	ListTrashed(ctx context.Context) ([]Joke, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	TrashByOwner(ctx context.Context, ownerID string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL joke repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const jokeColumns = `j.id, j.title, j.content, j.user_id, j.created_at, j.updated_at, j.deleted_at`

// Create inserts a joke and its category associations.
func (r *PostgresRepository) Create(ctx context.Context, j *Joke) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO jokes (id, title, content, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query, j.ID, j.Title, j.Content, j.UserID, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert joke: %w", err)
	}

	if err := syncCategoriesTx(ctx, tx, j.ID, j.CategoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update persists title, content and the replacement category set.
func (r *PostgresRepository) Update(ctx context.Context, j *Joke) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE jokes SET title = $2, content = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	tag, err := tx.Exec(ctx, query, j.ID, j.Title, j.Content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update joke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM joke_categories WHERE joke_id = $1`, j.ID); err != nil {
		return fmt.Errorf("clear joke categories: %w", err)
	}
	if err := syncCategoriesTx(ctx, tx, j.ID, j.CategoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID retrieves an active joke with its category IDs.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Joke, error) {
	return r.getOne(ctx, `j.id = $1 AND j.deleted_at IS NULL`, id)
}

// GetTrashed retrieves a soft-deleted joke.
func (r *PostgresRepository) GetTrashed(ctx context.Context, id string) (*Joke, error) {
	return r.getOne(ctx, `j.id = $1 AND j.deleted_at IS NOT NULL`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, where, id string) (*Joke, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM jokes j WHERE %s`, jokeColumns, where)
	j, err := scanJoke(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadCategories(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// List returns a page of active jokes, optionally restricted to
// client-visible rows, and the total count under the same filter.
func (r *PostgresRepository) List(ctx context.Context, visibleOnly bool, offset, limit int) ([]Joke, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	where := `j.deleted_at IS NULL`
	if visibleOnly {
		where += ` AND ` + visibleFilter
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM jokes j WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jokes: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM jokes j
		WHERE %s
		ORDER BY j.created_at DESC
		OFFSET $1 LIMIT $2
	`, jokeColumns, where)
	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list jokes: %w", err)
	}
	defer rows.Close()

	jokes, err := collectJokes(rows)
	if err != nil {
		return nil, 0, err
	}
	return jokes, total, nil
}

// Search returns active jokes whose title or content matches the
// keyword, optionally restricted to client-visible rows.
func (r *PostgresRepository) Search(ctx context.Context, keyword string, visibleOnly bool) ([]Joke, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	where := `j.deleted_at IS NULL AND (j.title ILIKE $1 OR j.content ILIKE $1)`
	if visibleOnly {
		where += ` AND ` + visibleFilter
	}

	query := fmt.Sprintf(`SELECT %s FROM jokes j WHERE %s ORDER BY j.created_at DESC`, jokeColumns, where)
	rows, err := r.pool.Query(ctx, query, "%"+keyword+"%")
	if err != nil {
		return nil, fmt.Errorf("search jokes: %w", err)
	}
	defer rows.Close()

	return collectJokes(rows)
}

// Random returns one random client-visible joke.
func (r *PostgresRepository) Random(ctx context.Context) (*Joke, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM jokes j
		WHERE j.deleted_at IS NULL AND %s
		ORDER BY random()
		LIMIT 1
	`, jokeColumns, visibleFilter)
	j, err := scanJoke(r.pool.QueryRow(ctx, query))
	if err != nil {
		return nil, err
	}
	if err := r.loadCategories(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// HasVisibleCategory reports whether the joke passes the client
// visibility filter.
func (r *PostgresRepository) HasVisibleCategory(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var visible bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM joke_categories jc
			JOIN categories c ON c.id = jc.category_id
			WHERE jc.joke_id = $1 AND c.title <> 'Unknown' AND c.deleted_at IS NULL
		)
	`, id).Scan(&visible)
	if err != nil {
		return false, fmt.Errorf("check joke visibility: %w", err)
	}
	return visible, nil
}

// ListTrashed returns every soft-deleted joke, newest first.
func (r *PostgresRepository) ListTrashed(ctx context.Context) ([]Joke, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s FROM jokes j
		WHERE j.deleted_at IS NOT NULL
		ORDER BY j.deleted_at DESC
	`, jokeColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list trashed jokes: %w", err)
	}
	defer rows.Close()

	return collectJokes(rows)
}

// SoftDelete stamps deleted_at on an active joke. Category
// associations stay in place so a restore is lossless.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE jokes SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		"soft delete joke", id, time.Now().UTC())
}

// Restore clears deleted_at on a trashed joke.
func (r *PostgresRepository) Restore(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE jokes SET deleted_at = NULL, updated_at = $2 WHERE id = $1 AND deleted_at IS NOT NULL`,
		"restore joke", id, time.Now().UTC())
}

// Purge permanently deletes a trashed joke. Join rows and votes go
// with it via ON DELETE CASCADE.
func (r *PostgresRepository) Purge(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM jokes WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("purge joke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TrashByOwner soft-deletes every active joke owned by the user.
func (r *PostgresRepository) TrashByOwner(ctx context.Context, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx,
		`UPDATE jokes SET deleted_at = $2, updated_at = $2 WHERE user_id = $1 AND deleted_at IS NULL`,
		ownerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("trash jokes by owner: %w", err)
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

func (r *PostgresRepository) loadCategories(ctx context.Context, j *Joke) error {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id FROM joke_categories WHERE joke_id = $1`, j.ID)
	if err != nil {
		return fmt.Errorf("load joke categories: %w", err)
	}
	defer rows.Close()

	j.CategoryIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan category id: %w", err)
		}
		j.CategoryIDs = append(j.CategoryIDs, id)
	}
	return rows.Err()
}

func syncCategoriesTx(ctx context.Context, tx pgx.Tx, jokeID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO joke_categories (joke_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT (joke_id, category_id) DO NOTHING
		`, jokeID, categoryID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrUnknownCategory
			}
			return fmt.Errorf("attach category %s: %w", categoryID, err)
		}
	}
	return nil
}

func scanJoke(row pgx.Row) (*Joke, error) {
	var j Joke
	err := row.Scan(&j.ID, &j.Title, &j.Content, &j.UserID, &j.CreatedAt, &j.UpdatedAt, &j.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan joke: %w", err)
	}
	return &j, nil
}

func collectJokes(rows pgx.Rows) ([]Joke, error) {
	jokes := []Joke{}
	for rows.Next() {
		j, err := scanJoke(rows)
		if err != nil {
			return nil, err
		}
		jokes = append(jokes, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jokes: %w", err)
	}
	return jokes, nil
}
