package vote

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
	ErrNotFound  = errors.New("vote not found")
	ErrDuplicate = errors.New("vote already exists for this user and joke")
)

// Repository defines the interface for vote data operations.
type Repository interface {
	Get(ctx context.Context, userID, jokeID string) (*Vote, error)
	Create(ctx context.Context, v *Vote) error
	UpdateRating(ctx context.Context, id string, rating int) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// PostgresRepository implements Repository using PostgreSQL. The
// votes table carries a unique index on (user_id, joke_id); Create
// surfaces a violation as ErrDuplicate so the service can retry the
// cast as an update.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL vote repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const voteColumns = `id, user_id, joke_id, rating, created_at, updated_at`

// Get retrieves the vote a user cast on a joke.
func (r *PostgresRepository) Get(ctx context.Context, userID, jokeID string) (*Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM votes WHERE user_id = $1 AND joke_id = $2`, voteColumns)
	return scanVote(r.pool.QueryRow(ctx, query, userID, jokeID))
}

// Create inserts a vote row.
func (r *PostgresRepository) Create(ctx context.Context, v *Vote) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO votes (id, user_id, joke_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, v.ID, v.UserID, v.JokeID, v.Rating, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

// UpdateRating changes an existing vote's rating in place.
func (r *PostgresRepository) UpdateRating(ctx context.Context, id string, rating int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		`UPDATE votes SET rating = $2, updated_at = $3 WHERE id = $1`,
		id, rating, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a single vote.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByUser removes every vote a user has cast and reports how
// many rows went away.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM votes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete votes by user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll clears the whole ledger.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM votes`)
	if err != nil {
		return 0, fmt.Errorf("delete all votes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanVote(row pgx.Row) (*Vote, error) {
	var v Vote
	err := row.Scan(&v.ID, &v.UserID, &v.JokeID, &v.Rating, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan vote: %w", err)
	}
	return &v, nil
}
