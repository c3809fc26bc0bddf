package auth

import (
	"errors"
	"testing"
	"time"

	"servicedesk/models"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("service123")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if err := CheckPassword("service123", hash); err != nil {
		t.Fatalf("CheckPassword() with correct password: %v", err)
	}
	if err := CheckPassword("wrong-pass1", hash); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("CheckPassword() error = %v, want ErrInvalidPassword", err)
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("HashPassword() accepted a short password")
	}
}

func TestValidateAccountPassword(t *testing.T) {
	tests := []struct {
		password string
		want     error
	}{
		{"abcdefg1", nil},
		{"ünïcödé9", nil},
		{"ab1", ErrPasswordTooShort},
		{"abcdefgh", ErrPasswordNoDigit},
		{"12345678", ErrPasswordNoLetter},
		{"Quinn2026", ErrPasswordMatchesAccount},
		{"my-inspector-1", ErrPasswordMatchesAccount},
		{"qc-check-77", nil},
	}
	for _, tt := range tests {
		err := ValidateAccountPassword(tt.password, "Quinn Inspector", "qc.inspector@example.com")
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateAccountPassword(%q) error = %v, want %v", tt.password, err, tt.want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "u-1", Name: "Ada", Role: models.RoleAdvisor}

	token, err := m.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() failed: %v", err)
	}
	if claims.UserID != "u-1" || claims.Role != models.RoleAdvisor || claims.Name != "Ada" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewJWTManager("other-secret", time.Hour)
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("token validated with the wrong secret")
	}

	expired := NewJWTManager("test-secret", -time.Minute)
	old, err := expired.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}
	if _, err := m.ValidateToken(old); err == nil {
		t.Fatal("expired token validated")
	}
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def")
	if err != nil || token != "abc.def" {
		t.Fatalf("ExtractToken() = %q, %v", token, err)
	}
	for _, header := range []string{"", "Basic abc", "Bearer"} {
		if _, err := ExtractToken(header); err == nil {
			t.Errorf("ExtractToken(%q) accepted", header)
		}
	}
}
