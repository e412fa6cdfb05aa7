package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values. A token presented under the wrong type is invalid.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or of the wrong type.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSigningSecret is returned when the signing secret is shorter than 32 bytes.
	ErrWeakSigningSecret = errors.New("token signing secret must be at least 32 bytes")
)

// Subject is the identity snapshot carried by access tokens and session rows.
type Subject struct {
	UserID    string
	FullName  string
	Email     string
	Role      string
	UserType  string
	DriverID  string
	StudentID string
}

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	UserType  string `json:"user_type,omitempty"`
	DriverID  string `json:"driver_id,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	TokenType string `json:"type"`
}

// RefreshClaims holds JWT claims for the refresh token. It carries only the
// subject id; profile fields are re-read from the session on rotation.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// TokenProvider issues and validates HS256-signed access and refresh tokens
// from a single symmetric secret.
type TokenProvider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with secret. Returns
// ErrWeakSigningSecret if the secret is shorter than 32 bytes; callers must
// treat that as fatal at startup.
func NewTokenProvider(secret []byte, accessTTL, refreshTTL time.Duration) (*TokenProvider, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSigningSecret
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 168 * time.Hour
	}
	return &TokenProvider{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access token carrying the full subject
// snapshot. Returns the token string and its expiry.
func (p *TokenProvider) IssueAccess(sub Subject) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		FullName:  sub.FullName,
		Email:     sub.Email,
		Role:      sub.Role,
		UserType:  sub.UserType,
		DriverID:  sub.DriverID,
		StudentID: sub.StudentID,
		TokenType: TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh issues a long-lived refresh token carrying only the subject id.
func (p *TokenProvider) IssueRefresh(userID string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: TokenTypeRefresh,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, exp, type).
func (p *TokenProvider) ValidateAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefresh parses and validates a refresh token (signature, exp, type).
// Returns the subject user id.
func (p *TokenProvider) ValidateRefresh(tokenString string) (string, error) {
	claims := &RefreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, p.keyFunc)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return p.secret, nil
}
