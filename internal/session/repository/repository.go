package repository

import (
	"context"
	"time"

	"fleetia-access/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByToken(ctx context.Context, sessionToken string) (*domain.Session, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteByToken(ctx context.Context, sessionToken string) error
	UpdateLastActivity(ctx context.Context, id string, at time.Time) error
	UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error
}
