package domain

import "time"

// TokenType scopes a revocation to one kind of token. Revoking a session
// token does not revoke an access token with the same bytes.
type TokenType string

const (
	TypeSessionToken TokenType = "session_token"
	TypeAccessToken  TokenType = "access_token"
	TypeRefreshToken TokenType = "refresh_token"
)

// Valid reports whether t is one of the known token types.
func (t TokenType) Valid() bool {
	switch t {
	case TypeSessionToken, TypeAccessToken, TypeRefreshToken:
		return true
	}
	return false
}

// RetentionPeriod is how long a revocation entry is kept before purge.
// Entries must outlive the longest token lifetime so a revoked token can
// never be accepted again while it could still verify.
const RetentionPeriod = 7 * 24 * time.Hour

// RevokedToken is one blacklist entry. Only the hash of the token is stored.
type RevokedToken struct {
	ID        string
	TokenHash string
	TokenType TokenType
	UserID    string
	Reason    string
	RevokedAt time.Time
	ExpiresAt time.Time
}
