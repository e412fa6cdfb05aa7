package domain

import "time"

// Severity classifies a security event. High and critical events additionally
// trigger a human-facing notification.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Notifiable reports whether events of this severity escalate to a notification.
func (s Severity) Notifiable() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Well-known event types recorded by the subsystem.
const (
	EventRateLimitExceeded  = "rate_limit_exceeded"
	EventUnauthorizedAccess = "unauthorized_access"
	EventSuspiciousActivity = "suspicious_activity"
	EventSessionExpired     = "session_expired"
	EventLogin              = "login"
	EventLogout             = "logout"
	EventTwoFactorSent      = "2fa_code_sent"
	EventTwoFactorVerified  = "2fa_verified"
	EventTwoFactorFailed    = "2fa_failed"
)

// SecurityEvent is an append-only record of an authentication-relevant event.
// Rows are never updated or deleted by the subsystem.
type SecurityEvent struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	Severity      Severity       `json:"severity"`
	Success       bool           `json:"success"`
	UserID        string         `json:"user_id,omitempty"` // empty when no actor is known
	Email         string         `json:"email,omitempty"`
	SourceAddress string         `json:"source_address"`
	ClientAgent   string         `json:"client_agent"`
	Details       map[string]any `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
