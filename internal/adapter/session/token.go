package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/rl1809/order-console/internal/core/domain"
)

var (
	ErrMissingToken    = errors.New("access token is required")
	ErrMissingUsername = errors.New("username is required when the token does not carry one")
	ErrTokenExpired    = errors.New("access token has expired")
)

var usernameClaims = []string{"username", "user", "preferred_username", "sub"}

// FromToken builds the identity handed to every component. The token is read
// without verifying its signature; the backend does that. A JWT may supply
// the username and expiry, an opaque token needs an explicit username.
func FromToken(token, username string, now time.Time) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}

	id := domain.Identity{Username: username, Token: token}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err == nil {
		if id.Username == "" {
			id.Username = claimString(claims)
		}
		if exp, ok := claims["exp"].(float64); ok {
			id.ExpiresAt = time.Unix(int64(exp), 0)
		}
	}

	if id.Username == "" {
		return domain.Identity{}, ErrMissingUsername
	}
	if !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt) {
		return domain.Identity{}, fmt.Errorf("%w at %s", ErrTokenExpired, id.ExpiresAt.Format(time.RFC3339))
	}
	return id, nil
}

func claimString(claims jwt.MapClaims) string {
	for _, name := range usernameClaims {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
