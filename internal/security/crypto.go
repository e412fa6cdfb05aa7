package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
)

var (
	// ErrInvalidKeyLength is returned when the encryption key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("encryption key must be exactly 32 bytes")
	// ErrInvalidCiphertext is returned when a ciphertext is malformed or fails authentication.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Cipher provides authenticated symmetric encryption (AES-256-GCM) for
// sensitive payloads that must be recoverable, unlike hashed PINs.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher returns a Cipher using the given 32-byte key. There is no fallback
// key; callers must fail startup on ErrInvalidKeyLength.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce and returns
// base64(nonce || ciphertext). Each call produces a distinct output.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Returns ErrInvalidCiphertext for malformed input
// or failed authentication.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return nil, ErrInvalidCiphertext
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}
