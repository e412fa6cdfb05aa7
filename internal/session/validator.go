package session

import (
	"fleetia-access/internal/security"
	"fleetia-access/internal/session/domain"
)

// Changes reports which origin components differ from the values stored at
// session creation.
type Changes struct {
	SourceAddress bool `json:"source_address"`
	ClientAgent   bool `json:"client_agent"`
	Fingerprint   bool `json:"fingerprint"`
}

// FingerprintResult is the outcome of validating a session's origin.
type FingerprintResult struct {
	Valid      bool    `json:"valid"`
	Suspicious bool    `json:"suspicious"`
	Changes    Changes `json:"changes"`
}

// ValidateFingerprint recomputes the fingerprint from the current origin
// components and compares it to the session's stored value.
//
// The verdict is suspicious only when the source address differs AND the
// client agent differs AND the recomputed fingerprint does not match; any
// single-factor change (e.g. IP rotation behind a shared NAT) is tolerated to
// avoid false positives. Callers must treat a suspicious verdict as a hard
// fail: log it, delete the session, and require re-authentication.
func ValidateFingerprint(s *domain.Session, sourceAddress, clientAgent, locale string) FingerprintResult {
	recomputed := security.DeriveFingerprint(sourceAddress, clientAgent, locale)
	changes := Changes{
		SourceAddress: s.SourceAddress != sourceAddress,
		ClientAgent:   s.ClientAgent != clientAgent,
		Fingerprint:   s.Fingerprint != recomputed,
	}
	return FingerprintResult{
		Valid:      !changes.Fingerprint,
		Suspicious: changes.SourceAddress && changes.ClientAgent && changes.Fingerprint,
		Changes:    changes,
	}
}
