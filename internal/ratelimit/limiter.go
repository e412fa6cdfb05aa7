// Package ratelimit implements the durable sliding-window attempt counter with
// lockout escalation used by every login channel and the global request throttle.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleetia-access/internal/audit"
	auditdomain "fleetia-access/internal/audit/domain"
	"fleetia-access/internal/ratelimit/domain"
	"fleetia-access/internal/ratelimit/repository"
)

// Well-known attempt types.
const (
	AttemptLogin      = "login"
	AttemptAdminLogin = "admin_login"
	AttemptAPIRequest = "api_request"
)

// Policy holds the constants for one limiter instance. All policies share the
// same state machine.
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
	// LockSeverity is the severity of the rate_limit_exceeded event emitted
	// when the policy locks or rejects an identifier.
	LockSeverity auditdomain.Severity
}

var (
	// LoginPolicy protects per-credential driver/student logins: 5 attempts
	// per 15 minutes, 15 minute lockout.
	LoginPolicy = Policy{MaxAttempts: 5, Window: 15 * time.Minute, Lockout: 15 * time.Minute, LockSeverity: auditdomain.SeverityMedium}
	// AdminLoginPolicy protects admin-grade logins: 3 attempts, 30 minute lockout.
	AdminLoginPolicy = Policy{MaxAttempts: 3, Window: 15 * time.Minute, Lockout: 30 * time.Minute, LockSeverity: auditdomain.SeverityMedium}
	// GlobalAPIPolicy throttles requests per source address: 100 per minute.
	GlobalAPIPolicy = Policy{MaxAttempts: 100, Window: time.Minute, Lockout: time.Minute, LockSeverity: auditdomain.SeverityHigh}
)

// PolicyFor returns the policy for a known attempt type. Unknown attempt types
// get the per-credential login policy.
func PolicyFor(attemptType string) Policy {
	switch attemptType {
	case AttemptAdminLogin:
		return AdminLoginPolicy
	case AttemptAPIRequest:
		return GlobalAPIPolicy
	default:
		return LoginPolicy
	}
}

// Result is the outcome of one Check call.
type Result struct {
	Allowed     bool
	Attempts    int
	Remaining   int
	LockedUntil *time.Time // set when denied
}

// Limiter applies a Policy to durable rate-limit records.
type Limiter struct {
	repo  repository.Repository
	audit audit.Recorder
	nowF  func() time.Time
}

// NewLimiter returns a Limiter persisting to repo. recorder may be nil; lock
// events are then not recorded.
func NewLimiter(repo repository.Repository, recorder audit.Recorder) *Limiter {
	return &Limiter{repo: repo, audit: recorder, nowF: func() time.Time { return time.Now().UTC() }}
}

// Check admits or denies one attempt for (identifier, attemptType) under p.
//
// State machine: no record creates one with count 1 and admits; a future lock
// denies; a past lock resets the window and admits; an elapsed window resets
// and admits; otherwise the count increments, locking when it reaches
// p.MaxAttempts. Read-modify-write races between concurrent checks for the
// same identifier degrade to approximate counting, which the design accepts.
func (l *Limiter) Check(ctx context.Context, identifier, attemptType string, p Policy) (*Result, error) {
	now := l.nowF()
	rec, err := l.repo.Get(ctx, identifier, attemptType)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		rec = &domain.Record{
			ID:             uuid.New().String(),
			Identifier:     identifier,
			AttemptType:    attemptType,
			Attempts:       1,
			FirstAttemptAt: now,
			LastAttemptAt:  now,
		}
		if err := l.repo.Create(ctx, rec); err != nil {
			return nil, err
		}
		return &Result{Allowed: true, Attempts: 1, Remaining: p.MaxAttempts - 1}, nil
	}

	if rec.Locked(now) {
		l.recordLockEvent(ctx, identifier, attemptType, p, rec.Attempts, *rec.LockedUntil)
		return &Result{Allowed: false, Attempts: rec.Attempts, Remaining: 0, LockedUntil: rec.LockedUntil}, nil
	}

	if rec.LockedUntil != nil || now.Sub(rec.FirstAttemptAt) > p.Window {
		// Expired lock or elapsed window: start a fresh window.
		rec.Attempts = 1
		rec.FirstAttemptAt = now
		rec.LastAttemptAt = now
		rec.LockedUntil = nil
		if err := l.repo.Update(ctx, rec); err != nil {
			return nil, err
		}
		return &Result{Allowed: true, Attempts: 1, Remaining: p.MaxAttempts - 1}, nil
	}

	rec.Attempts++
	rec.LastAttemptAt = now
	if rec.Attempts >= p.MaxAttempts {
		lockedUntil := now.Add(p.Lockout)
		rec.LockedUntil = &lockedUntil
		if err := l.repo.Update(ctx, rec); err != nil {
			return nil, err
		}
		l.recordLockEvent(ctx, identifier, attemptType, p, rec.Attempts, lockedUntil)
		return &Result{Allowed: false, Attempts: rec.Attempts, Remaining: 0, LockedUntil: &lockedUntil}, nil
	}

	if err := l.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return &Result{Allowed: true, Attempts: rec.Attempts, Remaining: p.MaxAttempts - rec.Attempts}, nil
}

// Reset unconditionally deletes the record for (identifier, attemptType).
// Idempotent; used for administrative resets.
func (l *Limiter) Reset(ctx context.Context, identifier, attemptType string) error {
	return l.repo.Delete(ctx, identifier, attemptType)
}

func (l *Limiter) recordLockEvent(ctx context.Context, identifier, attemptType string, p Policy, attempts int, lockedUntil time.Time) {
	if l.audit == nil {
		return
	}
	l.audit.Record(ctx, audit.Entry{
		EventType: auditdomain.EventRateLimitExceeded,
		Severity:  p.LockSeverity,
		Details: map[string]any{
			"identifier":   identifier,
			"attempt_type": attemptType,
			"attempts":     attempts,
			"locked_until": lockedUntil.Format(time.RFC3339),
		},
	})
}
