package repository

import (
	"context"

	"fleetia-access/internal/blacklist/domain"
)

// Repository defines persistence for revoked-token entries.
type Repository interface {
	// Create persists a revocation entry. The entry must have ID set.
	Create(ctx context.Context, rt *domain.RevokedToken) error
	// GetByHashAndType returns the entry for (tokenHash, tokenType), or nil
	// if absent.
	GetByHashAndType(ctx context.Context, tokenHash string, tokenType domain.TokenType) (*domain.RevokedToken, error)
	// DeleteExpired removes entries past their retention expiry and reports
	// how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
