package session

import (
	"testing"
	"time"
)

func testTokenConfig() Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = []byte(testSecret)
	return cfg
}

func TestJWTManager_IssueAndVerify(t *testing.T) {
	mgr, err := NewJWTManager(testTokenConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	now := time.Now().UTC()
	tok, exp, err := mgr.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", "alice", now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !exp.After(now) {
		t.Fatal("expected exp after now")
	}

	claims, err := mgr.Verify(tok, now.Add(1*time.Second))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("UserID = %q", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Fatalf("Username = %q", claims.Username)
	}
	if claims.Issuer != "friendlines" {
		t.Fatalf("Issuer = %q", claims.Issuer)
	}
}

func TestJWTManager_ExpiredVsInvalid(t *testing.T) {
	mgr, err := NewJWTManager(testTokenConfig())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	tok, _, err := mgr.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", "alice", now)
	if err != nil {
		t.Fatal(err)
	}

	// Past the 15m TTL plus clock skew: expired, not invalid.
	if _, err := mgr.Verify(tok, now.Add(16*time.Minute)); err != ErrAccessExpired {
		t.Fatalf("want ErrAccessExpired, got %v", err)
	}

	// Garbage: invalid.
	if _, err := mgr.Verify("not.a.token", now); err != ErrAccessInvalid {
		t.Fatalf("want ErrAccessInvalid for garbage, got %v", err)
	}

	// Wrong secret: invalid, never expired.
	otherCfg := testTokenConfig()
	otherCfg.JWTSecret = []byte("ffffffffffffffffffffffffffffffff")
	other, err := NewJWTManager(otherCfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(tok, now); err != ErrAccessInvalid {
		t.Fatalf("want ErrAccessInvalid for wrong secret, got %v", err)
	}

	// Wrong issuer: invalid.
	issCfg := testTokenConfig()
	issCfg.Issuer = "someone-else"
	stranger, err := NewJWTManager(issCfg)
	if err != nil {
		t.Fatal(err)
	}
	strangerTok, _, err := stranger.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", "alice", now)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.Verify(strangerTok, now); err != ErrAccessInvalid {
		t.Fatalf("want ErrAccessInvalid for wrong issuer, got %v", err)
	}
}

func TestJWTManager_ClockSkewTolerated(t *testing.T) {
	mgr, err := NewJWTManager(testTokenConfig())
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	tok, exp, err := mgr.Issue("01HZZZZZZZZZZZZZZZZZZZZZZZ", "alice", now)
	if err != nil {
		t.Fatal(err)
	}

	// Just past exp but within the 30s skew window.
	if _, err := mgr.Verify(tok, exp.Add(10*time.Second)); err != nil {
		t.Fatalf("within skew should verify, got %v", err)
	}

	// Far past the skew window.
	if _, err := mgr.Verify(tok, exp.Add(5*time.Minute)); err != ErrAccessExpired {
		t.Fatalf("want ErrAccessExpired, got %v", err)
	}
}

func TestNewJWTManager_RejectsWeakConfig(t *testing.T) {
	cfg := DefaultConfig() // no secret
	if _, err := NewJWTManager(cfg); err != ErrConfig {
		t.Fatalf("want ErrConfig for missing secret, got %v", err)
	}

	cfg.JWTSecret = []byte("short")
	if _, err := NewJWTManager(cfg); err != ErrConfig {
		t.Fatalf("want ErrConfig for short secret, got %v", err)
	}
}
