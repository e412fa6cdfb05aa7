package repository

import (
	"context"

	"fleetia-access/internal/twofactor/domain"
)

// Repository defines persistence for two-factor challenges.
type Repository interface {
	// Create persists a new challenge. The challenge must have ID set.
	Create(ctx context.Context, c *domain.Challenge) error
	// GetUnverifiedByUser returns the subject's first unverified challenge,
	// or nil if none is pending.
	GetUnverifiedByUser(ctx context.Context, userID string) (*domain.Challenge, error)
	// Update persists the challenge's mutable fields (attempts, verified).
	Update(ctx context.Context, c *domain.Challenge) error
	// Delete removes the challenge by id. Deleting an absent row is not an error.
	Delete(ctx context.Context, id string) error
	// DeleteUnverifiedByUser removes all unverified challenges for the subject.
	DeleteUnverifiedByUser(ctx context.Context, userID string) error
}
