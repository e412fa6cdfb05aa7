package session

import (
	"testing"

	"fleetia-access/internal/security"
	"fleetia-access/internal/session/domain"
)

func storedSession() *domain.Session {
	return &domain.Session{
		SourceAddress: "10.0.0.1",
		ClientAgent:   "Mozilla/5.0",
		Fingerprint:   security.DeriveFingerprint("10.0.0.1", "Mozilla/5.0", "en-US"),
	}
}

func TestValidateFingerprint_ExactMatch(t *testing.T) {
	res := ValidateFingerprint(storedSession(), "10.0.0.1", "Mozilla/5.0", "en-US")
	if !res.Valid || res.Suspicious {
		t.Errorf("exact match: %+v", res)
	}
	if res.Changes.SourceAddress || res.Changes.ClientAgent || res.Changes.Fingerprint {
		t.Errorf("no component should be flagged: %+v", res.Changes)
	}
}

func TestValidateFingerprint_SingleFactorTolerated(t *testing.T) {
	// IP rotated behind a NAT: fingerprint differs, but only one factor changed.
	res := ValidateFingerprint(storedSession(), "10.0.0.99", "Mozilla/5.0", "en-US")
	if res.Valid {
		t.Error("changed address should invalidate the fingerprint match")
	}
	if res.Suspicious {
		t.Error("single-factor change must not be suspicious")
	}
	if !res.Changes.SourceAddress || res.Changes.ClientAgent {
		t.Errorf("changes = %+v", res.Changes)
	}

	// Agent-only change likewise.
	res = ValidateFingerprint(storedSession(), "10.0.0.1", "curl/8.0", "en-US")
	if res.Suspicious {
		t.Error("agent-only change must not be suspicious")
	}

	// Locale-only change: fingerprint differs, neither address nor agent changed.
	res = ValidateFingerprint(storedSession(), "10.0.0.1", "Mozilla/5.0", "fr-FR")
	if res.Valid || res.Suspicious {
		t.Errorf("locale-only change: %+v", res)
	}
}

func TestValidateFingerprint_BothFactorsChangedIsSuspicious(t *testing.T) {
	res := ValidateFingerprint(storedSession(), "203.0.113.5", "curl/8.0", "en-US")
	if !res.Suspicious {
		t.Error("address+agent change with fingerprint mismatch should be suspicious")
	}
	if res.Valid {
		t.Error("mismatch cannot be valid")
	}
}
