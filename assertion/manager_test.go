package assertion

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testKey = []byte("test-signing-key-32-bytes-long!!")

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:        5 * time.Minute,
		SigningKey: testKey,
		Issuer:     "myaccounts/challenge",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := testManager(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	token, expiresAt, err := m.Issue("alice@example.com", "session-1", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if want := now.Add(5 * time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiresAt)
	}

	if err := m.Verify(token, "alice@example.com", now.Add(time.Minute)); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

func TestVerifyRejectsWrongIdentity(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	token, _, err := m.Issue("alice@example.com", "session-1", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := m.Verify(token, "mallory@example.com", now); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	token, _, err := m.Issue("alice@example.com", "session-1", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := m.Verify(token, "alice@example.com", now.Add(6*time.Minute)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid after TTL, got %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	other, err := NewManager(Config{
		TTL:        5 * time.Minute,
		SigningKey: []byte("a-completely-different-key-here!"),
		Issuer:     "myaccounts/challenge",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	token, _, err := other.Issue("alice@example.com", "session-1", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if err := m.Verify(token, "alice@example.com", now); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for foreign signature, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	now := time.Now()
	other, err := NewManager(Config{
		TTL:        5 * time.Minute,
		SigningKey: testKey,
		Issuer:     "someone-else",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	token, _, err := other.Issue("alice@example.com", "session-1", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m := testManager(t)
	if err := m.Verify(token, "alice@example.com", now); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong issuer, got %v", err)
	}
}

func TestVerifyRejectsAlgorithmConfusion(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	// An unsigned token must never pass, whatever its claims say.
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			Issuer:    "myaccounts/challenge",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}
	if err := m.Verify(token, "alice@example.com", now); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for alg=none, got %v", err)
	}
}

func TestVerifyEmptyTokenAndNilManager(t *testing.T) {
	m := testManager(t)
	if err := m.Verify("", "alice@example.com", time.Now()); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty token, got %v", err)
	}
	var nilManager *Manager
	if err := nilManager.Verify("x", "alice@example.com", time.Now()); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid on nil manager, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{TTL: 0, SigningKey: testKey}); err == nil {
		t.Fatal("expected error for zero TTL")
	}
	if _, err := NewManager(Config{TTL: 2 * time.Hour, SigningKey: testKey}); err == nil {
		t.Fatal("expected error for excessive TTL")
	}
	if _, err := NewManager(Config{TTL: time.Minute}); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestSessionIDCarriedInClaims(t *testing.T) {
	m := testManager(t)
	now := time.Now()
	token, _, err := m.Issue("alice@example.com", "session-42", now)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return testKey, nil
	}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.ChallengeSession != "session-42" {
		t.Fatalf("expected session id in claims, got %q", claims.ChallengeSession)
	}
	if claims.ID == "" {
		t.Fatal("expected unique jti")
	}
}
