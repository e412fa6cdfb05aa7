package repository

import (
	"context"

	"fleetia-access/internal/ratelimit/domain"
)

// Repository defines persistence for rate-limit records.
type Repository interface {
	// Get returns the record for (identifier, attemptType), or nil if absent.
	Get(ctx context.Context, identifier, attemptType string) (*domain.Record, error)
	// Create persists a new record. The record must have ID set.
	Create(ctx context.Context, r *domain.Record) error
	// Update persists the record's mutable fields (attempts, window bounds, lock).
	Update(ctx context.Context, r *domain.Record) error
	// Delete removes the record for (identifier, attemptType). Deleting an
	// absent record is not an error.
	Delete(ctx context.Context, identifier, attemptType string) error
}
