package domain

import "time"

// Portal is the coarse role-based destination a subject resolves to after
// authentication. A subject resolves to exactly one portal.
type Portal string

const (
	PortalAdmin   Portal = "admin"
	PortalDriver  Portal = "driver"
	PortalStudent Portal = "student"
	PortalUnknown Portal = "unknown"
)

// Session is the durable record of one authenticated session. Multiple
// concurrent sessions per subject are allowed as independent rows.
type Session struct {
	ID           string
	SessionToken string

	// Subject snapshot captured at login.
	UserID    string
	FullName  string
	Email     string
	Role      string
	UserType  string
	DriverID  string
	StudentID string

	// Client origin captured at creation, used for hijack detection.
	Fingerprint   string
	SourceAddress string
	ClientAgent   string

	AccessToken           string
	AccessTokenExpiresAt  *time.Time
	RefreshToken          string
	RefreshTokenExpiresAt *time.Time

	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// Expired reports whether the session itself has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// RefreshExpired reports whether the session's recorded refresh expiry has
// passed at now. A session without a refresh expiry cannot rotate.
func (s *Session) RefreshExpired(now time.Time) bool {
	return s.RefreshTokenExpiresAt == nil || !s.RefreshTokenExpiresAt.After(now)
}

// ActiveSession is the self-service view of a session row for session review.
// Rows past expiry are included and flagged rather than hidden.
type ActiveSession struct {
	ID             string    `json:"id"`
	DeviceCategory string    `json:"device_category"`
	ClientAgent    string    `json:"client_agent"`
	SourceAddress  string    `json:"source_address"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	IsExpired      bool      `json:"is_expired"`
}
