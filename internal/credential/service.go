// Package credential exposes the credential hashing and payload encryption
// primitives to the login channels that sit in front of this subsystem.
package credential

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"fleetia-access/internal/security"
)

// Service wraps one-way PIN hashing and reversible payload encryption.
type Service struct {
	hasher *security.Hasher
	cipher *security.Cipher
}

// NewService returns a credential Service over the given primitives.
func NewService(hasher *security.Hasher, cipher *security.Cipher) *Service {
	return &Service{hasher: hasher, cipher: cipher}
}

// HashPIN produces a storage-safe hash of the PIN.
func (s *Service) HashPIN(pin string) (string, error) {
	return s.hasher.Hash([]byte(pin))
}

// VerifyPIN reports whether pin matches the stored hash. A malformed hash is
// an error distinct from a plain mismatch.
func (s *Service) VerifyPIN(hash, pin string) (bool, error) {
	err := s.hasher.Compare(hash, []byte(pin))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// EncryptPayload seals a sensitive payload for storage; each call produces a
// distinct ciphertext.
func (s *Service) EncryptPayload(plaintext string) (string, error) {
	return s.cipher.Encrypt([]byte(plaintext))
}

// DecryptPayload reverses EncryptPayload.
func (s *Service) DecryptPayload(encoded string) (string, error) {
	raw, err := s.cipher.Decrypt(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
