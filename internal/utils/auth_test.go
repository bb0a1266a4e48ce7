package utils

import (
	"testing"

	"github.com/systemage/systemagego/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("password stored in plain text")
	}
	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	user := &models.User{
		ID:    "11111111-2222-3333-4444-555555555555",
		Email: "test@example.com",
		Role:  "admin",
	}

	access, refresh, err := GenerateTokens(user, "test-secret")
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("empty token returned")
	}

	claims, err := ValidateToken(access, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims["id"] != user.ID {
		t.Errorf("id claim = %v, want %v", claims["id"], user.ID)
	}
	if claims["role"] != "admin" {
		t.Errorf("role claim = %v, want admin", claims["role"])
	}

	if _, err := ValidateToken(access, "other-secret"); err == nil {
		t.Error("token validated with wrong secret")
	}
	if _, err := ValidateToken("not.a.token", "test-secret"); err == nil {
		t.Error("garbage token validated")
	}
}
