// Package blacklist maintains the revocation list consulted before any token
// is honored. Tokens are stored hashed and revocations are scoped per type.
package blacklist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetia-access/internal/blacklist/domain"
	"fleetia-access/internal/blacklist/repository"
	"fleetia-access/internal/security"
)

var ErrUnknownTokenType = errors.New("unknown token type")

// Registry records and checks token revocations.
type Registry struct {
	repo repository.Repository
	nowF func() time.Time
}

// NewRegistry returns a revocation registry over the given repository.
func NewRegistry(repo repository.Repository) *Registry {
	return &Registry{repo: repo, nowF: func() time.Time { return time.Now().UTC() }}
}

// Revoke records the token as revoked for its type. The raw token is hashed
// before storage and the entry is retained for domain.RetentionPeriod.
// Revoking an already revoked token is a no-op.
func (g *Registry) Revoke(ctx context.Context, token string, tokenType domain.TokenType, userID, reason string) error {
	if !tokenType.Valid() {
		return ErrUnknownTokenType
	}
	now := g.nowF()
	return g.repo.Create(ctx, &domain.RevokedToken{
		ID:        uuid.NewString(),
		TokenHash: security.HashToken(token),
		TokenType: tokenType,
		UserID:    userID,
		Reason:    reason,
		RevokedAt: now,
		ExpiresAt: now.Add(domain.RetentionPeriod),
	})
}

// IsRevoked reports whether the token has been revoked as the given type.
// A revocation under a different type does not match. Entries past their
// retention expiry are treated as absent.
func (g *Registry) IsRevoked(ctx context.Context, token string, tokenType domain.TokenType) (bool, error) {
	rt, err := g.repo.GetByHashAndType(ctx, security.HashToken(token), tokenType)
	if err != nil {
		return false, err
	}
	if rt == nil {
		return false, nil
	}
	return rt.ExpiresAt.After(g.nowF()), nil
}

// PurgeExpired removes revocation entries past their retention window.
func (g *Registry) PurgeExpired(ctx context.Context) (int64, error) {
	return g.repo.DeleteExpired(ctx)
}
