// Package token issues signed access/refresh token pairs and rotates access
// tokens from a valid refresh token bound to a live session.
package token

import (
	"context"
	"errors"
	"time"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/security"
	sessiondomain "fleetia-access/internal/session/domain"
)

// Sentinel errors for rotation; the handler maps all of them to 401.
var (
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrSessionNotFound     = errors.New("no session bound to refresh token")
	ErrRefreshExpired      = errors.New("session refresh expiry passed")
)

// SessionStore is the minimal session persistence needed for rotation.
type SessionStore interface {
	GetByRefreshToken(ctx context.Context, refreshToken string) (*sessiondomain.Session, error)
	UpdateAccessToken(ctx context.Context, id, accessToken string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// Pair is a freshly issued access/refresh token pair with expiries.
type Pair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// Service issues and rotates tokens.
type Service struct {
	tokens   *security.TokenProvider
	sessions SessionStore
	audit    audit.Recorder
	nowF     func() time.Time
}

// NewService returns a token Service. recorder may be nil.
func NewService(tokens *security.TokenProvider, sessions SessionStore, recorder audit.Recorder) *Service {
	return &Service{tokens: tokens, sessions: sessions, audit: recorder, nowF: func() time.Time { return time.Now().UTC() }}
}

// IssuePair mints an access token carrying the full subject snapshot and a
// refresh token carrying only the subject id.
func (s *Service) IssuePair(sub security.Subject) (*Pair, error) {
	access, accessExp, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(sub.UserID)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// Rotate verifies the presented refresh token, locates the session bound to
// that exact token and subject, and mints a new access token persisted onto
// the session. The refresh token itself is not rotated.
//
// An unknown or unbound refresh token is treated as a replay and recorded as a
// high-severity unauthorized_access event. A session whose recorded refresh
// expiry has passed is deleted eagerly with a low-severity expiry event.
func (s *Service) Rotate(ctx context.Context, refreshToken string) (string, time.Time, error) {
	if refreshToken == "" {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}
	if sess == nil || sess.UserID != userID {
		s.record(ctx, audit.Entry{
			EventType: auditdomain.EventUnauthorizedAccess,
			Severity:  auditdomain.SeverityHigh,
			UserID:    userID,
			Details:   map[string]any{"reason": "refresh token not bound to any session"},
		})
		return "", time.Time{}, ErrSessionNotFound
	}

	if sess.RefreshExpired(s.nowF()) {
		_ = s.sessions.Delete(ctx, sess.ID)
		s.record(ctx, audit.Entry{
			EventType: auditdomain.EventSessionExpired,
			Severity:  auditdomain.SeverityLow,
			UserID:    sess.UserID,
			Details:   map[string]any{"session_id": sess.ID},
		})
		return "", time.Time{}, ErrRefreshExpired
	}

	access, accessExp, err := s.tokens.IssueAccess(security.Subject{
		UserID:    sess.UserID,
		FullName:  sess.FullName,
		Email:     sess.Email,
		Role:      sess.Role,
		UserType:  sess.UserType,
		DriverID:  sess.DriverID,
		StudentID: sess.StudentID,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	if err := s.sessions.UpdateAccessToken(ctx, sess.ID, access, accessExp); err != nil {
		return "", time.Time{}, err
	}
	return access, accessExp, nil
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit != nil {
		s.audit.Record(ctx, e)
	}
}
