package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetia-access/internal/audit/domain"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository returns a security event repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends one security event row. Details are stored as JSONB; a nil
// map is stored as SQL NULL.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.SecurityEvent) error {
	var details []byte
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = raw
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO security_events (id, event_type, severity, success, user_id, email, source_address, client_agent, details, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10)
	`, e.ID, e.EventType, string(e.Severity), e.Success, e.UserID, e.Email,
		e.SourceAddress, e.ClientAgent, details, e.CreatedAt)
	return err
}

// ListRecent returns up to limit events ordered most recent first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int32) ([]*domain.SecurityEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, event_type, severity, success, COALESCE(user_id, ''), COALESCE(email, ''), source_address, client_agent, details, created_at
		FROM security_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.SecurityEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(row pgx.Row) (*domain.SecurityEvent, error) {
	var (
		e        domain.SecurityEvent
		severity string
		details  []byte
	)
	if err := row.Scan(&e.ID, &e.EventType, &severity, &e.Success, &e.UserID, &e.Email,
		&e.SourceAddress, &e.ClientAgent, &details, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Severity = domain.Severity(severity)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
