package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetia-access/internal/session/domain"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `
	id, session_token, user_id, full_name, email, role, user_type,
	COALESCE(driver_id, ''), COALESCE(student_id, ''),
	fingerprint, source_address, client_agent,
	COALESCE(access_token, ''), access_token_expires_at,
	COALESCE(refresh_token, ''), refresh_token_expires_at,
	expires_at, last_activity_at, created_at`

// GetByToken returns the session for the opaque session token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByToken(ctx context.Context, sessionToken string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_token = $1`, sessionToken)
	return scanSession(row)
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetByRefreshToken returns the session bound to exactly this refresh token,
// or nil if no session holds it.
func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_token = $1`, refreshToken)
	return scanSession(row)
}

// ListByUser returns all session rows for the user, most recent activity first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY last_activity_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persists the session. The session must have ID and SessionToken set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, session_token, user_id, full_name, email, role, user_type,
			driver_id, student_id, fingerprint, source_address, client_agent,
			access_token, access_token_expires_at, refresh_token, refresh_token_expires_at,
			expires_at, last_activity_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12,
			NULLIF($13, ''), $14, NULLIF($15, ''), $16, $17, $18, $19)
	`, s.ID, s.SessionToken, s.UserID, s.FullName, s.Email, s.Role, s.UserType,
		s.DriverID, s.StudentID, s.Fingerprint, s.SourceAddress, s.ClientAgent,
		s.AccessToken, s.AccessTokenExpiresAt, s.RefreshToken, s.RefreshTokenExpiresAt,
		s.ExpiresAt, s.LastActivityAt, s.CreatedAt)
	return err
}

// Delete removes the session with the given id. Deleting an absent row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// DeleteByToken removes the session with the given session token.
func (r *PostgresRepository) DeleteByToken(ctx context.Context, sessionToken string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE session_token = $1`, sessionToken)
	return err
}

// UpdateLastActivity sets the session's heartbeat timestamp.
func (r *PostgresRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET last_activity_at = $1 WHERE id = $2`, at, id)
	return err
}

// UpdateAccessToken persists a freshly rotated access token and its expiry.
func (r *PostgresRepository) UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE sessions SET access_token = $1, access_token_expires_at = $2 WHERE id = $3
	`, accessToken, expiresAt, id)
	return err
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.SessionToken, &s.UserID, &s.FullName, &s.Email, &s.Role, &s.UserType,
		&s.DriverID, &s.StudentID, &s.Fingerprint, &s.SourceAddress, &s.ClientAgent,
		&s.AccessToken, &s.AccessTokenExpiresAt, &s.RefreshToken, &s.RefreshTokenExpiresAt,
		&s.ExpiresAt, &s.LastActivityAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
