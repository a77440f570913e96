package session

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestFromToken_ReadsClaims(t *testing.T) {
	exp := now.Add(time.Hour)
	tok := signed(t, jwt.MapClaims{"username": "alice", "exp": exp.Unix()})

	id, err := FromToken(tok, "", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Username != "alice" || id.Token != tok || !id.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Errorf("unexpected identity %+v", id)
	}
}

func TestFromToken_ExplicitUsernameWins(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"sub": "42"})

	id, err := FromToken(tok, "bob", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Username != "bob" {
		t.Errorf("expected bob, got %s", id.Username)
	}
}

func TestFromToken_Expired(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"username": "alice", "exp": now.Add(-time.Minute).Unix()})

	if _, err := FromToken(tok, "", now); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestFromToken_OpaqueToken(t *testing.T) {
	id, err := FromToken("opaque-session-key", "carol", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Username != "carol" || !id.ExpiresAt.IsZero() {
		t.Errorf("unexpected identity %+v", id)
	}

	if _, err := FromToken("opaque-session-key", "", now); !errors.Is(err, ErrMissingUsername) {
		t.Errorf("expected ErrMissingUsername, got %v", err)
	}
}

func TestFromToken_Missing(t *testing.T) {
	if _, err := FromToken("", "alice", now); !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}
