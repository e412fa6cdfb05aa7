package repository

import (
	"context"

	"fleetia-access/internal/audit/domain"
)

// Repository defines persistence for security events. The log is append-only:
// there is no update or delete.
type Repository interface {
	Create(ctx context.Context, e *domain.SecurityEvent) error
	ListRecent(ctx context.Context, limit int32) ([]*domain.SecurityEvent, error)
}
