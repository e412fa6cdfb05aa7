package security

import (
	"strconv"
	"testing"
)

func TestGenerateCode_SixDigitRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestCodeEqual(t *testing.T) {
	hash := HashCode("482913")
	if !CodeEqual("482913", hash) {
		t.Error("matching code should compare equal")
	}
	if CodeEqual("482914", hash) {
		t.Error("non-matching code should not compare equal")
	}
}

func TestTokenHashEqual(t *testing.T) {
	hash := HashToken("opaque-token")
	if !TokenHashEqual("opaque-token", hash) {
		t.Error("matching token should compare equal")
	}
	if TokenHashEqual("other-token", hash) {
		t.Error("non-matching token should not compare equal")
	}
}

func TestGenerateSessionToken(t *testing.T) {
	a, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	b, _ := GenerateSessionToken()
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("two session tokens should not collide")
	}
}
