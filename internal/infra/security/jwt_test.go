package security

import (
	"errors"
	"testing"
	"time"

	"github.com/bastianbaeza/JackdawSoft/internal/core/domain"
)

func sessionUser() domain.User {
	return domain.User{
		ID:     "user-1",
		Email:  "op@example.com",
		Role:   domain.RoleOperator,
		Status: domain.StatusActive,
	}
}

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "jackdaws-test")
	token, err := m.Issue(sessionUser(), time.Now())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "op@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Role != string(domain.RoleOperator) {
		t.Errorf("role claim = %s, want operator", claims.Role)
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "jackdaws-test")
	token, err := m.Issue(sessionUser(), time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Parse(expired) error = %v, want ErrExpiredToken", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour, "jackdaws-test")
	verifier := NewTokenManager("secret-b", time.Hour, "jackdaws-test")

	token, err := issuer.Issue(sessionUser(), time.Now())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(foreign token) error = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "jackdaws-test")
	if _, err := m.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Parse(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}
	second, _ := GenerateToken()
	if first == second {
		t.Error("two generated tokens must differ")
	}
}
