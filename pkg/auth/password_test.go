package auth

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("demo-password-123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == "demo-password-123" {
		t.Error("Hash should not equal the plain password")
	}

	hash2, err := HashPassword("demo-password-123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hash == hash2 {
		t.Error("Different hashes should be generated for same password (bcrypt salt)")
	}
}

func TestCheckPasswordHash(t *testing.T) {
	hash, err := HashPassword("demo-password-123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !CheckPasswordHash("demo-password-123", hash) {
		t.Error("Correct password should match its hash")
	}

	if CheckPasswordHash("wrong-password", hash) {
		t.Error("Wrong password should not match")
	}
}
