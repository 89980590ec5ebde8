package auth

import (
	"strings"
	"testing"
)

func TestGenerateAndValidateAccessToken(t *testing.T) {
	ts := NewTokenService("test-secret")

	token, err := ts.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ts.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Issuer != "hearth" {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, "hearth")
	}
}

func TestValidateAccessTokenWrongSecret(t *testing.T) {
	ts1 := NewTokenService("secret-one")
	ts2 := NewTokenService("secret-two")

	token, err := ts1.GenerateAccessToken(7)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := ts2.ValidateAccessToken(token); err == nil {
		t.Error("expected error validating with wrong secret")
	}
}

func TestValidateAccessTokenGarbage(t *testing.T) {
	ts := NewTokenService("test-secret")

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := ts.ValidateAccessToken(tok); err == nil {
			t.Errorf("expected error for token %q", tok)
		}
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	ts := NewTokenService("test-secret")

	t1, err := ts.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	t2, err := ts.GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	if len(t1) != 64 {
		t.Errorf("token length = %d, want 64", len(t1))
	}
	if t1 == t2 {
		t.Error("expected distinct refresh tokens")
	}
	if strings.ContainsAny(t1, " $") {
		t.Errorf("unexpected characters in token %q", t1)
	}
}
