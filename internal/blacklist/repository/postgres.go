package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetia-access/internal/blacklist/domain"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a revoked-token repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists a revocation entry. Re-revoking the same (hash, type) pair
// is treated as a no-op rather than a conflict.
func (r *PostgresRepository) Create(ctx context.Context, rt *domain.RevokedToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO revoked_tokens (id, token_hash, token_type, user_id, reason, revoked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token_hash, token_type) DO NOTHING
	`, rt.ID, rt.TokenHash, rt.TokenType, rt.UserID, rt.Reason, rt.RevokedAt, rt.ExpiresAt)
	return err
}

// GetByHashAndType returns the entry for (tokenHash, tokenType), or nil if
// not found. It returns an error only for database failures.
func (r *PostgresRepository) GetByHashAndType(ctx context.Context, tokenHash string, tokenType domain.TokenType) (*domain.RevokedToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, token_hash, token_type, user_id, reason, revoked_at, expires_at
		FROM revoked_tokens
		WHERE token_hash = $1 AND token_type = $2
	`, tokenHash, tokenType)

	var rt domain.RevokedToken
	err := row.Scan(&rt.ID, &rt.TokenHash, &rt.TokenType, &rt.UserID,
		&rt.Reason, &rt.RevokedAt, &rt.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

// DeleteExpired removes entries whose retention expiry has passed.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM revoked_tokens WHERE expires_at <= now()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
