package security

import (
	"testing"
	"time"
)

func TestActivationTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.ActivationToken(42, "member@example.com")
	if err != nil {
		t.Fatalf("ActivationToken() error: %v", err)
	}

	claims, err := issuer.VerifyActivationToken(token)
	if err != nil {
		t.Fatalf("VerifyActivationToken() error: %v", err)
	}
	if claims.AccountID != 42 {
		t.Errorf("AccountID = %d, want 42", claims.AccountID)
	}
	if claims.Email != "member@example.com" {
		t.Errorf("Email = %q, want member@example.com", claims.Email)
	}
}

func TestActivationTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.ActivationToken(1, "a@example.com")
	if err != nil {
		t.Fatalf("ActivationToken() error: %v", err)
	}

	if _, err := other.VerifyActivationToken(token); err == nil {
		t.Error("expected verification to fail with a different secret")
	}
}

func TestActivationTokenRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.ActivationToken(1, "a@example.com")
	if err != nil {
		t.Fatalf("ActivationToken() error: %v", err)
	}

	if _, err := issuer.VerifyActivationToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestCSRFTokens(t *testing.T) {
	gen := NewCSRFGenerator("csrf-secret")

	token, err := gen.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	if !gen.ValidateToken("session-1", token) {
		t.Error("valid token rejected")
	}
	if gen.ValidateToken("session-2", token) {
		t.Error("token accepted for wrong session")
	}
	if gen.ValidateToken("session-1", "bogus") {
		t.Error("bogus token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}
