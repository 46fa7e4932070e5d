package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSessionToken_Format(t *testing.T) {
	t.Parallel()

	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if !strings.HasPrefix(token, "abs_") {
		t.Errorf("Token should start with abs_, got: %s", token)
	}
	if !ValidateTokenFormat(token) {
		t.Errorf("Generated token should validate: %s", token)
	}
}

func TestGenerateSessionToken_Uniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("Duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestValidateTokenFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
		valid bool
	}{
		{"valid", "abs_01HZY3V6N8Q4W7E2R5T9Y1V3J0_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"empty", "", false},
		{"wrong prefix", "pk_01HZY3V6N8Q4W7E2R5T9Y1V3J0_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"lowercase ulid", "abs_01hzy3v6n8q4w7e2r5t9y1v3j0_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"short secret", "abs_01HZY3V6N8Q4W7E2R5T9Y1V3J0_4f8d2e1b", false},
		{"uppercase secret", "abs_01HZY3V6N8Q4W7E2R5T9Y1V3J0_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", false},
		{"no separator", "abs_01HZY3V6N8Q4W7E2R5T9Y1V3J04f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidateTokenFormat(tt.token); got != tt.valid {
				t.Errorf("ValidateTokenFormat(%q) = %v, want %v", tt.token, got, tt.valid)
			}
		})
	}
}

func TestTokenIssuedAt(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	token, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	issued, err := TokenIssuedAt(token)
	if err != nil {
		t.Fatalf("TokenIssuedAt failed: %v", err)
	}
	if issued.Before(before) || issued.After(time.Now().Add(time.Second)) {
		t.Errorf("issued time %v out of range", issued)
	}

	if _, err := TokenIssuedAt("garbage"); err != ErrInvalidTokenFormat {
		t.Errorf("expected ErrInvalidTokenFormat, got %v", err)
	}
}
