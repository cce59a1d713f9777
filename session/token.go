package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TokenInspector decides whether a stored token is past its exp claim.
// Tokens that are not JWTs carry no expiry and never expire here.
type TokenInspector struct {
	secret []byte
}

// NewTokenInspector verifies signatures only when secret is non-empty.
func NewTokenInspector(secret string) *TokenInspector {
	t := &TokenInspector{}
	if secret != "" {
		t.secret = []byte(secret)
	}
	return t
}

func (t *TokenInspector) claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if len(t.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	_, err := parser.ParseWithClaims(token, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Expired reports whether token should no longer be trusted at now. With a
// secret configured, a token failing verification counts as expired.
func (t *TokenInspector) Expired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims, err := t.claims(token)
	if err != nil {
		return len(t.secret) > 0
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}
