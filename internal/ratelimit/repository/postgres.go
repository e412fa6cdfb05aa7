package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetia-access/internal/ratelimit/domain"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a rate-limit repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the record for (identifier, attemptType), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, identifier, attemptType string) (*domain.Record, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, identifier, attempt_type, attempts_count, first_attempt_at, last_attempt_at, locked_until
		FROM rate_limits
		WHERE identifier = $1 AND attempt_type = $2
	`, identifier, attemptType)

	var (
		rec    domain.Record
		locked *time.Time
	)
	err := row.Scan(&rec.ID, &rec.Identifier, &rec.AttemptType, &rec.Attempts,
		&rec.FirstAttemptAt, &rec.LastAttemptAt, &locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.LockedUntil = locked
	return &rec, nil
}

// Create persists a new record. A concurrent first attempt for the same pair
// upserts instead of failing, counting both attempts.
func (r *PostgresRepository) Create(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rate_limits (id, identifier, attempt_type, attempts_count, first_attempt_at, last_attempt_at, locked_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identifier, attempt_type) DO UPDATE SET
			attempts_count = rate_limits.attempts_count + EXCLUDED.attempts_count,
			last_attempt_at = EXCLUDED.last_attempt_at
	`, rec.ID, rec.Identifier, rec.AttemptType, rec.Attempts,
		rec.FirstAttemptAt, rec.LastAttemptAt, rec.LockedUntil)
	return err
}

// Update persists the record's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, rec *domain.Record) error {
	_, err := r.db.Exec(ctx, `
		UPDATE rate_limits
		SET attempts_count = $1, first_attempt_at = $2, last_attempt_at = $3, locked_until = $4
		WHERE identifier = $5 AND attempt_type = $6
	`, rec.Attempts, rec.FirstAttemptAt, rec.LastAttemptAt, rec.LockedUntil,
		rec.Identifier, rec.AttemptType)
	return err
}

// Delete removes the record for (identifier, attemptType). Idempotent.
func (r *PostgresRepository) Delete(ctx context.Context, identifier, attemptType string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM rate_limits WHERE identifier = $1 AND attempt_type = $2
	`, identifier, attemptType)
	return err
}
