package domain

import "time"

// MaxAttempts is the number of wrong submissions before a challenge is void.
const MaxAttempts = 5

// Lifetime is how long an issued code remains verifiable.
const Lifetime = 10 * time.Minute

// Challenge is one emailed verification code awaiting confirmation. Only the
// hash of the code is stored; the plaintext exists only in the outbound mail.
type Challenge struct {
	ID          string
	UserID      string
	CodeHash    string
	Attempts    int
	MaxAttempts int
	ExpiresAt   time.Time
	Verified    bool
	CreatedAt   time.Time
}

// Expired reports whether the challenge has passed its expiry at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Exhausted reports whether the challenge has no submissions left.
func (c *Challenge) Exhausted() bool {
	return c.Attempts >= c.MaxAttempts
}
