// Package twofactor issues and verifies emailed one-time verification codes.
package twofactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/security"
	"fleetia-access/internal/twofactor/domain"
	"fleetia-access/internal/twofactor/mail"
	"fleetia-access/internal/twofactor/repository"
)

// Sentinel errors for verification; the handler maps each to its own status.
var (
	ErrNoChallenge      = errors.New("no pending challenge")
	ErrChallengeExpired = errors.New("challenge expired")
	ErrTooManyAttempts  = errors.New("too many failed attempts")
	ErrCodeMismatch     = errors.New("verification code does not match")
)

// Service issues and verifies two-factor challenges.
type Service struct {
	repo   repository.Repository
	sender mail.Sender
	audit  audit.Recorder
	nowF   func() time.Time
}

// NewService returns a two-factor Service. recorder may be nil.
func NewService(repo repository.Repository, sender mail.Sender, recorder audit.Recorder) *Service {
	return &Service{repo: repo, sender: sender, audit: recorder, nowF: func() time.Time { return time.Now().UTC() }}
}

// Issue generates a fresh 6-digit code for the subject, stores its hash, and
// mails the plaintext to the given address. Any prior unverified challenge for
// the subject is discarded first so at most one challenge is live at a time.
// A delivery failure voids the new challenge rather than leaving a code the
// subject never received.
func (s *Service) Issue(ctx context.Context, userID, email string) error {
	if err := s.repo.DeleteUnverifiedByUser(ctx, userID); err != nil {
		return err
	}

	code, err := security.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := s.nowF()
	challenge := &domain.Challenge{
		ID:          uuid.NewString(),
		UserID:      userID,
		CodeHash:    security.HashCode(code),
		Attempts:    0,
		MaxAttempts: domain.MaxAttempts,
		ExpiresAt:   now.Add(domain.Lifetime),
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, challenge); err != nil {
		return err
	}

	if err := s.sender.SendCode(email, code); err != nil {
		_ = s.repo.Delete(ctx, challenge.ID)
		return fmt.Errorf("send code: %w", err)
	}

	s.record(ctx, audit.Entry{
		EventType: auditdomain.EventTwoFactorSent,
		Severity:  auditdomain.SeverityLow,
		Success:   true,
		UserID:    userID,
		Email:     email,
	})
	return nil
}

// Verify checks the submitted code against the subject's pending challenge.
//
// An expired or attempt-exhausted challenge is deleted and never reused. A
// mismatch increments the attempt counter. A match marks the challenge
// verified, after which the subject has no pending challenge.
func (s *Service) Verify(ctx context.Context, userID, submitted string) error {
	challenge, err := s.repo.GetUnverifiedByUser(ctx, userID)
	if err != nil {
		return err
	}
	if challenge == nil {
		return ErrNoChallenge
	}

	if challenge.Expired(s.nowF()) {
		if err := s.repo.Delete(ctx, challenge.ID); err != nil {
			return err
		}
		s.recordFailure(ctx, userID, "code expired")
		return ErrChallengeExpired
	}

	if challenge.Exhausted() {
		if err := s.repo.Delete(ctx, challenge.ID); err != nil {
			return err
		}
		s.recordFailure(ctx, userID, "attempts exhausted")
		return ErrTooManyAttempts
	}

	if !security.CodeEqual(submitted, challenge.CodeHash) {
		challenge.Attempts++
		if err := s.repo.Update(ctx, challenge); err != nil {
			return err
		}
		s.recordFailure(ctx, userID, "code mismatch")
		return ErrCodeMismatch
	}

	challenge.Verified = true
	if err := s.repo.Update(ctx, challenge); err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		EventType: auditdomain.EventTwoFactorVerified,
		Severity:  auditdomain.SeverityLow,
		Success:   true,
		UserID:    userID,
	})
	return nil
}

func (s *Service) recordFailure(ctx context.Context, userID, reason string) {
	s.record(ctx, audit.Entry{
		EventType: auditdomain.EventTwoFactorFailed,
		Severity:  auditdomain.SeverityMedium,
		UserID:    userID,
		Details:   map[string]any{"reason": reason},
	})
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit != nil {
		s.audit.Record(ctx, e)
	}
}
