package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerateAndParseJWT(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := GenerateJWT(secret, userID, "vendor", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(secret, token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Role != "vendor" {
		t.Errorf("Role = %q, want vendor", claims.Role)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret-a", uuid.New(), "client", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT("secret-b", token); err == nil {
		t.Error("ParseJWT should reject token signed with a different secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "client", time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("secret", token); err == nil {
		t.Error("ParseJWT should reject expired token")
	}
}
