package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// User is the remote identity record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is a token pair issued by the auth service.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// authResponse covers both shapes the sign-up endpoint answers with: a bare
// user when email confirmation is pending, or a full session otherwise.
type authResponse struct {
	AuthSession
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *authResponse) user() *User {
	if r.User != nil {
		return r.User
	}
	if r.ID != "" {
		return &User{ID: r.ID, Email: r.Email}
	}
	return nil
}

// SignUp registers a new identity. The confirmation email links back to
// redirectTo. When the project has confirmation disabled the issued session
// is stored through the token source.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*User, error) {
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}

	var resp authResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  query,
		body:   map[string]string{"email": email, "password": password},
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}

	if resp.AccessToken != "" && c.tokens != nil {
		c.tokens.StoreTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	}
	return resp.user(), nil
}

// SignInWithPassword exchanges credentials for a session and stores the
// token pair through the token source.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthSession, error) {
	var sess AuthSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
		out:    &sess,
	})
	if err != nil {
		return nil, err
	}

	if c.tokens != nil {
		c.tokens.StoreTokens(sess.AccessToken, sess.RefreshToken, sess.ExpiresIn)
	}
	return &sess, nil
}

// refreshSession exchanges a refresh token for a fresh pair.
func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*AuthSession, error) {
	var sess AuthSession
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
		out:    &sess,
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut invalidates the remote session and always clears the local token
// pair, whether or not the remote call succeeded.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.bearerToken(ctx)
	defer func() {
		if c.tokens != nil {
			c.tokens.ClearTokens()
		}
	}()
	if token == "" {
		return nil
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  token,
	})
}

// GetUser fetches the identity behind the current session.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	token := c.bearerToken(ctx)
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		out:    &user,
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPasswordForEmail asks the auth service to send a recovery email
// linking back to redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  query,
		body:   map[string]string{"email": email},
	})
}

// UpdateUserPassword sets a new password for the current session's user.
func (c *Client) UpdateUserPassword(ctx context.Context, password string) error {
	token := c.bearerToken(ctx)
	if token == "" {
		return ErrNotAuthenticated
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		body:   map[string]string{"password": password},
		token:  token,
	})
}

// AdminDeleteUser removes an identity using the service-role key. Used as
// the compensating action when the two-phase sign-up write half-fails.
func (c *Client) AdminDeleteUser(ctx context.Context, id string) error {
	if c.serviceKey == "" {
		return ErrNotConfigured
	}
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/auth/v1/admin/users/" + url.PathEscape(id),
		token:  c.serviceKey,
	})
}
