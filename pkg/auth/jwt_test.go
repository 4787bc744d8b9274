package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT(1, "agent@example.com", testSecret, 24)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	if token == "" {
		t.Error("Token should not be empty")
	}
}

func TestValidateJWT(t *testing.T) {
	userID := 123
	email := "agent@example.com"

	token, err := GenerateJWT(userID, email, testSecret, 24)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("Failed to validate JWT: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected UserID %d, got %d", userID, claims.UserID)
	}

	if claims.Email != email {
		t.Errorf("Expected Email %s, got %s", email, claims.Email)
	}

	if claims.ExpiresAt.Time.Before(time.Now()) {
		t.Error("Token should not be expired")
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(1, "agent@example.com", testSecret, 24)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	if _, err := ValidateJWT(token, "a-completely-different-secret-value"); err == nil {
		t.Error("Expected validation to fail with wrong secret")
	}
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := GenerateJWT(1, "agent@example.com", testSecret, -1)
	if err != nil {
		t.Fatalf("Failed to generate JWT: %v", err)
	}

	if _, err := ValidateJWT(token, testSecret); err == nil {
		t.Error("Expected validation to fail for expired token")
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token", testSecret); err == nil {
		t.Error("Expected validation to fail for malformed token")
	}
}
