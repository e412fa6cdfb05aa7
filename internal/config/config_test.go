package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes
	testKey    = "abcdefghijklmnopqrstuvwxyz012345" // 32 bytes
)

func setRequired(t *testing.T) {
	t.Helper()
	os.Clearenv()
	os.Setenv("TOKEN_SIGNING_SECRET", testSecret)
	os.Setenv("ENCRYPTION_KEY", testKey)
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.AccessTokenTTL != "15m" {
		t.Errorf("AccessTokenTTL = %q, want %q", cfg.AccessTokenTTL, "15m")
	}
	if cfg.RefreshTokenTTL != "168h" {
		t.Errorf("RefreshTokenTTL = %q, want %q", cfg.RefreshTokenTTL, "168h")
	}
	if cfg.SessionTTL != "24h" {
		t.Errorf("SessionTTL = %q, want %q", cfg.SessionTTL, "24h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AlertKafkaTopic != "fleetia-security-alerts" {
		t.Errorf("AlertKafkaTopic = %q, want default", cfg.AlertKafkaTopic)
	}
}

func TestLoad_MissingSigningSecretFails(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENCRYPTION_KEY", testKey)

	_, err := Load()
	if err == nil {
		t.Fatal("Load should fail without TOKEN_SIGNING_SECRET")
	}
	if !strings.Contains(err.Error(), "TOKEN_SIGNING_SECRET") {
		t.Errorf("error = %v, want mention of TOKEN_SIGNING_SECRET", err)
	}
}

func TestLoad_ShortSigningSecretFails(t *testing.T) {
	setRequired(t)
	os.Setenv("TOKEN_SIGNING_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail with a short signing secret")
	}
}

func TestLoad_WrongEncryptionKeyLenFails(t *testing.T) {
	setRequired(t)
	os.Setenv("ENCRYPTION_KEY", "short")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when ENCRYPTION_KEY is not 32 bytes")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	setRequired(t)
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("ACCESS_TOKEN_TTL", "5m")
	os.Setenv("BCRYPT_COST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.AccessTTL() != 5*time.Minute {
		t.Errorf("AccessTTL = %v, want 5m", cfg.AccessTTL())
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestLoad_InvalidBcryptCostFails(t *testing.T) {
	setRequired(t)
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail with BCRYPT_COST out of range")
	}
}

func TestTTLFallbacks(t *testing.T) {
	cfg := &Config{AccessTokenTTL: "bogus", RefreshTokenTTL: "", SessionTTL: "-1h"}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", cfg.AccessTTL())
	}
	if cfg.RefreshTTL() != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", cfg.RefreshTTL())
	}
	if cfg.SessionLifetime() != 24*time.Hour {
		t.Errorf("SessionLifetime fallback = %v, want 24h", cfg.SessionLifetime())
	}
}

func TestAlertKafkaBrokersList(t *testing.T) {
	cfg := &Config{AlertKafkaBrokers: "localhost:9092, broker2:9092 ,"}
	got := cfg.AlertKafkaBrokersList()
	if len(got) != 2 || got[0] != "localhost:9092" || got[1] != "broker2:9092" {
		t.Errorf("AlertKafkaBrokersList = %v", got)
	}

	var nilCfg *Config
	if nilCfg.AlertKafkaBrokersList() != nil {
		t.Error("nil config should return nil broker list")
	}
}
