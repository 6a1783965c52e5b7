package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/you/blogauth/domain"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret-key", "blogauth-test", time.Hour)

	token, err := svc.Generate(42, "alice@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %s", claims.Email)
	}
	if claims.ExpiresAt <= claims.IssuedAt {
		t.Error("expected expiry after issuance")
	}
}

func TestJWTService_TokensCarryUniqueIDs(t *testing.T) {
	svc := NewJWTService("test-secret-key", "blogauth-test", time.Hour)

	t1, err := svc.Generate(1, "a@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	t2, err := svc.Generate(1, "a@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if t1 == t2 {
		t.Error("two tokens for the same user must differ")
	}
}

func TestJWTService_ValidateErrors(t *testing.T) {
	svc := NewJWTService("test-secret-key", "blogauth-test", time.Hour)

	expiredSvc := NewJWTService("test-secret-key", "blogauth-test", -time.Hour)
	expired, err := expiredSvc.Generate(1, "a@example.com")
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}

	otherSvc := NewJWTService("another-secret", "blogauth-test", time.Hour)
	foreign, err := otherSvc.Generate(1, "a@example.com")
	if err != nil {
		t.Fatalf("generate foreign: %v", err)
	}

	tests := []struct {
		name     string
		token    string
		expected error
	}{
		{"expired token", expired, domain.ErrTokenExpired},
		{"garbage token", "not-a-token", domain.ErrTokenMalformed},
		{"empty token", "", domain.ErrTokenMalformed},
		{"wrong signature", foreign, domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}
