// Package audit records security-relevant events and escalates high and
// critical ones to the alert pipeline.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"fleetia-access/internal/alert"
	"fleetia-access/internal/audit/domain"
	auditrepo "fleetia-access/internal/audit/repository"
)

// MetaExtractor returns the caller's source address and client agent from the
// request context. These two fields are always taken from the transport, never
// from the payload.
type MetaExtractor func(context.Context) (sourceAddress, clientAgent string)

// Entry is the caller-supplied part of a security event. Source address and
// client agent are filled in by the logger.
type Entry struct {
	EventType string
	Severity  domain.Severity
	Success   bool
	UserID    string
	Email     string
	Details   map[string]any
}

// Recorder writes a single security event. Record is best-effort: failures are
// logged locally and never affect the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Logger implements Recorder using the event repository, a meta extractor, and
// an optional alert emitter for high/critical escalation.
type Logger struct {
	repo    auditrepo.Repository
	meta    MetaExtractor
	emitter alert.Emitter
}

// NewLogger returns a Recorder that persists to repo. meta may be nil; source
// address and agent are then recorded as "unknown". emitter may be nil; no
// notifications are sent.
func NewLogger(repo auditrepo.Repository, meta MetaExtractor, emitter alert.Emitter) *Logger {
	return &Logger{repo: repo, meta: meta, emitter: emitter}
}

// Record appends one security event. A missing or unknown severity defaults to
// low. High and critical events additionally publish an async notification;
// neither a failed write nor a failed publish is surfaced to the caller.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if l == nil || l.repo == nil {
		return
	}
	severity := e.Severity
	if !severity.Valid() {
		severity = domain.SeverityLow
	}
	sourceAddress, clientAgent := "unknown", "unknown"
	if l.meta != nil {
		sourceAddress, clientAgent = l.meta(ctx)
	}
	event := &domain.SecurityEvent{
		ID:            uuid.New().String(),
		EventType:     e.EventType,
		Severity:      severity,
		Success:       e.Success,
		UserID:        e.UserID,
		Email:         e.Email,
		SourceAddress: sourceAddress,
		ClientAgent:   clientAgent,
		Details:       e.Details,
		CreatedAt:     time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, event); err != nil {
		log.Printf("audit: failed to record event %s: %v", e.EventType, err)
	}
	if severity.Notifiable() {
		alert.EmitAsync(l.emitter, &alert.Notification{
			EventType:     event.EventType,
			Severity:      string(event.Severity),
			Success:       event.Success,
			UserID:        event.UserID,
			SourceAddress: event.SourceAddress,
			ClientAgent:   event.ClientAgent,
			Details:       event.Details,
			CreatedAt:     event.CreatedAt,
		})
	}
}
