// Package session bridges the browser's cookie jar and the remote auth
// service: the access/refresh token pair lives in signed cookies so the
// server-rendered path and the htmx path observe the same identity.
package session

// Cookie names for the token pair.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// Session is the authenticated state carried by a request's cookies.
// A zero Session means anonymous.
type Session struct {
	AccessToken  string
	RefreshToken string
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Email returns the identity email from the access token claims, or ""
// for anonymous or unparseable sessions.
func (s *Session) Email() string {
	if !s.Authenticated() {
		return ""
	}
	claims, err := ParseAccessToken(s.AccessToken)
	if err != nil {
		return ""
	}
	return claims.Email
}
