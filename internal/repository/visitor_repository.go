package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// visitorRepository implements the VisitorRepository interface using PostgreSQL.
type visitorRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVisitorRepository creates a new PostgreSQL-backed visitor repository.
func NewVisitorRepository(pool *pgxpool.Pool, logger zerolog.Logger) VisitorRepository {
	return &visitorRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "visitor").Logger(),
	}
}

// Insert appends one visit record.
func (r *visitorRepository) Insert(ctx context.Context, visitedAt time.Time) error {
	query := `INSERT INTO visitors (id, visited_at) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, uuid.New(), visitedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to insert visitor")
		return fmt.Errorf("failed to insert visitor: %w", err)
	}

	return nil
}

// CountSince counts visits at or after the cutoff.
func (r *visitorRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM visitors WHERE visited_at >= $1`

	var count int
	err := r.pool.QueryRow(ctx, query, since).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to count visitors")
		return 0, fmt.Errorf("failed to count visitors: %w", err)
	}

	return count, nil
}

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// GetEmail returns the account email for a user, or "" when unknown.
func (r *userRepository) GetEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	query := `SELECT email FROM users WHERE id = $1`

	var email string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query user email")
		return "", fmt.Errorf("failed to query user email: %w", err)
	}

	return email, nil
}
