// Package session manages durable session records: creation, validation with
// distinct failure causes, coalesced heartbeats, and self-service review.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetia-access/internal/security"
	"fleetia-access/internal/session/domain"
	"fleetia-access/internal/session/repository"
)

// Sentinel errors for session validation; handlers branch on the cause.
var (
	ErrNoToken        = errors.New("no session token provided")
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionExpired = errors.New("session expired")
)

// heartbeatInterval is the staleness tolerance for last-activity writes: the
// timestamp is only persisted when more than this has elapsed since the stored
// value, so validation does not cost a write on every request.
const heartbeatInterval = 5 * time.Minute

// CreateInput holds everything captured at login time for the new session row.
type CreateInput struct {
	Subject       security.Subject
	SourceAddress string
	ClientAgent   string
	Locale        string

	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Manager owns the session lifecycle against the repository.
type Manager struct {
	repo       repository.Repository
	sessionTTL time.Duration
	nowF       func() time.Time
}

// NewManager returns a Manager with the given session lifetime.
func NewManager(repo repository.Repository, sessionTTL time.Duration) *Manager {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &Manager{repo: repo, sessionTTL: sessionTTL, nowF: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new session row with a fresh opaque token and the
// fingerprint derived from the client's origin components.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*domain.Session, error) {
	token, err := security.GenerateSessionToken()
	if err != nil {
		return nil, err
	}
	now := m.nowF()
	s := &domain.Session{
		ID:             uuid.New().String(),
		SessionToken:   token,
		UserID:         in.Subject.UserID,
		FullName:       in.Subject.FullName,
		Email:          in.Subject.Email,
		Role:           in.Subject.Role,
		UserType:       in.Subject.UserType,
		DriverID:       in.Subject.DriverID,
		StudentID:      in.Subject.StudentID,
		Fingerprint:    security.DeriveFingerprint(in.SourceAddress, in.ClientAgent, in.Locale),
		SourceAddress:  in.SourceAddress,
		ClientAgent:    in.ClientAgent,
		AccessToken:    in.AccessToken,
		RefreshToken:   in.RefreshToken,
		ExpiresAt:      now.Add(m.sessionTTL),
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if !in.AccessTokenExpiresAt.IsZero() {
		t := in.AccessTokenExpiresAt
		s.AccessTokenExpiresAt = &t
	}
	if !in.RefreshTokenExpiresAt.IsZero() {
		t := in.RefreshTokenExpiresAt
		s.RefreshTokenExpiresAt = &t
	}
	if err := m.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate looks up the session by token and enforces expiry. Expired sessions
// are deleted on detection rather than left for background cleanup. The three
// failure causes are distinct so callers can branch: ErrNoToken,
// ErrInvalidSession, ErrSessionExpired.
func (m *Manager) Validate(ctx context.Context, sessionToken string) (*domain.Session, error) {
	if sessionToken == "" {
		return nil, ErrNoToken
	}
	s, err := m.repo.GetByToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrInvalidSession
	}
	if s.Expired(m.nowF()) {
		_ = m.repo.Delete(ctx, s.ID)
		return nil, ErrSessionExpired
	}
	return s, nil
}

// Heartbeat updates the session's last-activity timestamp, coalescing writes:
// nothing is persisted unless the stored value is more than five minutes stale.
func (m *Manager) Heartbeat(ctx context.Context, s *domain.Session) error {
	now := m.nowF()
	if now.Sub(s.LastActivityAt) <= heartbeatInterval {
		return nil
	}
	if err := m.repo.UpdateLastActivity(ctx, s.ID, now); err != nil {
		return err
	}
	s.LastActivityAt = now
	return nil
}

// Delete removes the session with the given id (logout or detected compromise).
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.repo.Delete(ctx, id)
}

// DeleteByToken removes the session holding the given token.
func (m *Manager) DeleteByToken(ctx context.Context, sessionToken string) error {
	return m.repo.DeleteByToken(ctx, sessionToken)
}

// GetByID returns the session for id, or nil when absent.
func (m *Manager) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	return m.repo.GetByID(ctx, id)
}

// ListActive returns the subject's sessions for self-service review. Rows past
// expiry are flagged IsExpired rather than hidden, and each row's client agent
// is classified into a coarse device category for display.
func (m *Manager) ListActive(ctx context.Context, userID string) ([]*domain.ActiveSession, error) {
	rows, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := m.nowF()
	out := make([]*domain.ActiveSession, len(rows))
	for i, s := range rows {
		out[i] = &domain.ActiveSession{
			ID:             s.ID,
			DeviceCategory: ClassifyAgent(s.ClientAgent),
			ClientAgent:    s.ClientAgent,
			SourceAddress:  s.SourceAddress,
			LastActivityAt: s.LastActivityAt,
			ExpiresAt:      s.ExpiresAt,
			IsExpired:      s.Expired(now),
		}
	}
	return out, nil
}

// ResolvePortal maps (role, userType) to exactly one portal.
func ResolvePortal(role, userType string) domain.Portal {
	switch {
	case role == "admin":
		return domain.PortalAdmin
	case userType == "driver":
		return domain.PortalDriver
	case userType == "student":
		return domain.PortalStudent
	default:
		return domain.PortalUnknown
	}
}
