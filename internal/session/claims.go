package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when an access token cannot be parsed.
var ErrInvalidToken = errors.New("session: invalid access token")

// Claims are the access-token claims this application reads. The token is
// issued and verified by the remote auth service; locally it is parsed
// without signature verification, purely to read identity and expiry.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// ParseAccessToken decodes the claims of a GoTrue access token.
func ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return claims, nil
}

// ExpiresWithin reports whether the claims expire within d from now.
// Tokens without an exp claim are treated as expired.
func (c *Claims) ExpiresWithin(d time.Duration) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return time.Now().Add(d).After(c.ExpiresAt.Time)
}
