package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateJWT(42, secret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	id, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}
}

func TestGenerateRejectsZeroUser(t *testing.T) {
	if _, err := GenerateJWT(0, secret); err == nil {
		t.Error("zero user ID accepted")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _ := GenerateJWT(1, secret)
	if _, err := ValidateToken(token, []byte("other")); err == nil {
		t.Error("token validated with the wrong secret")
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ValidateToken(token, secret); err == nil {
		t.Error("expired token accepted")
	}
}

func TestValidateRejectsMissingExpiry(t *testing.T) {
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"}).SignedString(secret)
	if _, err := ValidateToken(token, secret); err == nil {
		t.Error("token without expiry accepted")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", secret); err == nil {
		t.Error("garbage accepted")
	}
}
