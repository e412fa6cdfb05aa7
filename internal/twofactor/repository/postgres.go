package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetia-access/internal/twofactor/domain"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a challenge repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a new challenge.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO two_factor_challenges (id, user_id, code_hash, attempts, max_attempts, expires_at, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.UserID, c.CodeHash, c.Attempts, c.MaxAttempts, c.ExpiresAt, c.Verified, c.CreatedAt)
	return err
}

// GetUnverifiedByUser returns the subject's oldest unverified challenge, or
// nil if none is pending. It returns an error only for database failures.
func (r *PostgresRepository) GetUnverifiedByUser(ctx context.Context, userID string) (*domain.Challenge, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, code_hash, attempts, max_attempts, expires_at, verified, created_at
		FROM two_factor_challenges
		WHERE user_id = $1 AND verified = FALSE
		ORDER BY created_at
		LIMIT 1
	`, userID)

	var c domain.Challenge
	err := row.Scan(&c.ID, &c.UserID, &c.CodeHash, &c.Attempts, &c.MaxAttempts,
		&c.ExpiresAt, &c.Verified, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Update persists the challenge's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.Exec(ctx, `
		UPDATE two_factor_challenges SET attempts = $1, verified = $2 WHERE id = $3
	`, c.Attempts, c.Verified, c.ID)
	return err
}

// Delete removes the challenge by id. Idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM two_factor_challenges WHERE id = $1`, id)
	return err
}

// DeleteUnverifiedByUser removes all unverified challenges for the subject.
func (r *PostgresRepository) DeleteUnverifiedByUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM two_factor_challenges WHERE user_id = $1 AND verified = FALSE
	`, userID)
	return err
}
