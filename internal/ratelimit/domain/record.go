package domain

import "time"

// Record tracks attempts for one (identifier, attempt_type) pair.
// A set, future LockedUntil denies the identifier regardless of Attempts.
type Record struct {
	ID             string
	Identifier     string
	AttemptType    string
	Attempts       int
	FirstAttemptAt time.Time
	LastAttemptAt  time.Time
	LockedUntil    *time.Time // nil when not locked
}

// Locked reports whether the record carries a lock that is still in the future at now.
func (r *Record) Locked(now time.Time) bool {
	return r.LockedUntil != nil && r.LockedUntil.After(now)
}
