package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("s3cret", "test-issuer", time.Hour)

	token, expiresAt, err := m.Issue("agent@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}

	s, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if s.Subject != "agent@example.com" || s.Role != RoleAdmin {
		t.Fatalf("unexpected session %+v", s)
	}
	if !s.Valid(time.Now()) {
		t.Fatalf("fresh session should be valid")
	}
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("s3cret", "test-issuer", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.Issue("agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	m.now = time.Now
	if _, err := m.Verify(token); err != ErrExpiredToken {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerify_WrongSecretOrIssuer(t *testing.T) {
	token, _, err := NewManager("one", "iss", time.Hour).Issue("agent")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewManager("two", "iss", time.Hour).Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := NewManager("one", "other", time.Hour).Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestIssue_NoSecret(t *testing.T) {
	if _, _, err := NewManager("", "iss", time.Hour).Issue("agent"); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestSessionContext(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no session")
	}
	ctx := WithSession(context.Background(), SystemSession(time.Minute))
	s, ok := SessionFromContext(ctx)
	if !ok || s.Subject != "system" {
		t.Fatalf("expected system session, got %+v", s)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := BearerToken(r); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
	r.Header.Set("Authorization", "Bearer abc.def")
	if got := BearerToken(r); got != "abc.def" {
		t.Fatalf("expected abc.def, got %q", got)
	}
	r.Header.Set("Authorization", "Basic abc")
	if got := BearerToken(r); got != "" {
		t.Fatalf("expected empty token for basic auth, got %q", got)
	}
}
