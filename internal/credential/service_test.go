package credential

import (
	"testing"

	"fleetia-access/internal/security"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cipher, err := security.NewCipher([]byte("abcdefghijklmnopqrstuvwxyz012345"))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return NewService(security.NewHasher(4), cipher)
}

func TestPINRoundTrip(t *testing.T) {
	svc := newTestService(t)

	hash, err := svc.HashPIN("4821")
	if err != nil {
		t.Fatalf("HashPIN: %v", err)
	}
	if hash == "4821" {
		t.Fatal("hash must not equal the plaintext PIN")
	}

	valid, err := svc.VerifyPIN(hash, "4821")
	if err != nil || !valid {
		t.Errorf("VerifyPIN(correct) = %v, %v; want true, nil", valid, err)
	}
	valid, err = svc.VerifyPIN(hash, "9999")
	if err != nil || valid {
		t.Errorf("VerifyPIN(wrong) = %v, %v; want false, nil", valid, err)
	}
}

func TestVerifyPIN_MalformedHash(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.VerifyPIN("not-a-bcrypt-hash", "4821"); err == nil {
		t.Error("malformed hash should be an error, not a mismatch")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	svc := newTestService(t)

	sealed, err := svc.EncryptPayload("license XY-1")
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	again, err := svc.EncryptPayload("license XY-1")
	if err != nil {
		t.Fatalf("EncryptPayload: %v", err)
	}
	if sealed == again {
		t.Error("each encryption should use a fresh nonce")
	}

	plain, err := svc.DecryptPayload(sealed)
	if err != nil {
		t.Fatalf("DecryptPayload: %v", err)
	}
	if plain != "license XY-1" {
		t.Errorf("decrypted = %q", plain)
	}

	if _, err := svc.DecryptPayload("garbage"); err == nil {
		t.Error("garbage ciphertext should fail")
	}
}
