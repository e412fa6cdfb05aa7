package security

import (
	"crypto/sha256"
	"encoding/hex"
)

// UnknownLocale substitutes for an absent locale preference so that the
// fingerprint stays stable for clients that never send one.
const UnknownLocale = "unknown"

// DeriveFingerprint returns a stable hash of the client's network origin,
// agent string, and locale preference:
// SHA-256(sourceAddress + "|" + clientAgent + "|" + locale), hex-encoded.
// An empty locale is replaced with "unknown".
func DeriveFingerprint(sourceAddress, clientAgent, locale string) string {
	if locale == "" {
		locale = UnknownLocale
	}
	h := sha256.Sum256([]byte(sourceAddress + "|" + clientAgent + "|" + locale))
	return hex.EncodeToString(h[:])
}
