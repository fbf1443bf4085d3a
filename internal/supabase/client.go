// Package supabase is a thin HTTP client for the hosted backend: GoTrue for
// authentication and PostgREST for row access. It owns no state beyond the
// session it reads lazily per call through a TokenSource, so one client per
// request context is the intended lifecycle.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/inkwell/inkwell/internal/session"
)

// refreshLeeway is how close to expiry an access token may get before the
// client refreshes it ahead of a call.
const refreshLeeway = 30 * time.Second

// TokenSource supplies the current session token pair and receives
// refreshed or cleared pairs. Implemented by session.Manager.
type TokenSource interface {
	Tokens() (access, refresh string, ok bool)
	StoreTokens(access, refresh string, expiresIn int)
	ClearTokens()
}

// Client performs authenticated calls against the remote store.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
	tokens     TokenSource
	log        *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithServiceKey sets the service-role key used for admin operations.
func WithServiceKey(key string) Option {
	return func(c *Client) {
		c.serviceKey = key
	}
}

// WithLogger sets the client's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the project at baseURL with its public API key.
func New(baseURL, anonKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of the client bound to a request's token
// source. The copy shares the HTTP client and configuration.
func (c *Client) WithSession(ts TokenSource) *Client {
	bound := *c
	bound.tokens = ts
	return &bound
}

// Health pings the auth service. Used by the readiness probe.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/health"})
}

// bearerToken resolves the token for an authenticated call, refreshing the
// pair through the token source when the access token is about to expire.
// Returns "" when the request context is anonymous.
func (c *Client) bearerToken(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	access, refresh, ok := c.tokens.Tokens()
	if !ok {
		return ""
	}

	claims, err := session.ParseAccessToken(access)
	if err != nil {
		c.log.WarnContext(ctx, "discarding unparseable access token", slog.Any("error", err))
		c.tokens.ClearTokens()
		return ""
	}
	if !claims.ExpiresWithin(refreshLeeway) {
		return access
	}
	if refresh == "" {
		return ""
	}

	fresh, err := c.refreshSession(ctx, refresh)
	if err != nil {
		c.log.WarnContext(ctx, "session refresh failed", slog.Any("error", err))
		return ""
	}
	c.tokens.StoreTokens(fresh.AccessToken, fresh.RefreshToken, fresh.ExpiresIn)
	return fresh.AccessToken
}

// request describes one call against the remote store. The token selects
// the Authorization bearer; empty falls back to the anon key.
type request struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   any
	out    any
	token  string
}

// do issues one request. Responses with status >= 400 are returned as
// *APIError; req.out, when non-nil, receives the decoded body.
func (c *Client) do(ctx context.Context, r request) error {
	if c.baseURL == "" || c.anonKey == "" {
		return ErrNotConfigured
	}

	endpoint := c.baseURL + r.path
	if len(r.query) > 0 {
		endpoint += "?" + r.query.Encode()
	}

	var payload io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("supabase: encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, payload)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	token := r.token
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, values := range r.header {
		for _, v := range values {
			req.Header.Set(name, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("supabase: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return parseAPIError(resp.StatusCode, data)
	}

	if r.out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, r.out); err != nil {
			return fmt.Errorf("supabase: decode response: %w", err)
		}
	}
	return nil
}
