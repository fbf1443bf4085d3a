package session

import (
	"log/slog"
	"net/http"

	"github.com/inkwell/inkwell/internal/cookie"
)

// Refresh tokens outlive access tokens considerably; thirty days matches
// the remote store's session lifetime defaults.
const (
	defaultAccessMaxAge = 3600
	refreshMaxAge       = 30 * 24 * 3600
)

// Cookie is a (name, value) pair with write options, as exchanged with the
// active cookie store.
type Cookie struct {
	Name   string
	Value  string
	MaxAge int
}

// Manager reads and writes the session token pair for one request.
// The response writer may be nil for render-only contexts; writes issued
// there are logged and swallowed rather than raised, so a session refresh
// mid-render never crashes the render pass.
type Manager struct {
	cookies *cookie.Manager
	log     *slog.Logger
	w       http.ResponseWriter
	r       *http.Request
}

// NewManager binds a manager to one request/response pair.
func NewManager(c *cookie.Manager, log *slog.Logger, w http.ResponseWriter, r *http.Request) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{cookies: c, log: log, w: w, r: r}
}

// GetAll returns the request's cookies as ordered (name, value) pairs.
func (m *Manager) GetAll() []Cookie {
	raw := m.r.Cookies()
	out := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// SetAll writes each cookie into the active store, best effort. Writes
// without a response writer are dropped with a log line.
func (m *Manager) SetAll(cookies []Cookie) {
	if m.w == nil {
		names := make([]string, 0, len(cookies))
		for _, c := range cookies {
			names = append(names, c.Name)
		}
		m.log.WarnContext(m.r.Context(), "cookie write outside response context ignored",
			slog.Any("cookies", names))
		return
	}
	for _, c := range cookies {
		if c.MaxAge < 0 {
			m.cookies.Delete(m.w, c.Name)
			continue
		}
		if err := m.cookies.SetSigned(m.w, c.Name, c.Value, c.MaxAge); err != nil {
			m.log.ErrorContext(m.r.Context(), "failed to set cookie",
				slog.String("cookie", c.Name), slog.Any("error", err))
		}
	}
}

// Load reads the session from the request's signed cookies.
// Missing or tampered cookies yield an anonymous session.
func (m *Manager) Load() *Session {
	s := &Session{}
	if v, err := m.cookies.GetSigned(m.r, AccessTokenCookie); err == nil {
		s.AccessToken = v
	}
	if v, err := m.cookies.GetSigned(m.r, RefreshTokenCookie); err == nil {
		s.RefreshToken = v
	}
	return s
}

// Tokens implements the remote client's token source.
func (m *Manager) Tokens() (access, refresh string, ok bool) {
	s := m.Load()
	if !s.Authenticated() {
		return "", "", false
	}
	return s.AccessToken, s.RefreshToken, true
}

// StoreTokens persists a fresh token pair, e.g. after sign-in or an
// implicit refresh performed by the remote client.
func (m *Manager) StoreTokens(access, refresh string, expiresIn int) {
	if expiresIn <= 0 {
		expiresIn = defaultAccessMaxAge
	}
	m.SetAll([]Cookie{
		{Name: AccessTokenCookie, Value: access, MaxAge: expiresIn},
		{Name: RefreshTokenCookie, Value: refresh, MaxAge: refreshMaxAge},
	})
}

// ClearTokens destroys the session cookies.
func (m *Manager) ClearTokens() {
	m.SetAll([]Cookie{
		{Name: AccessTokenCookie, MaxAge: -1},
		{Name: RefreshTokenCookie, MaxAge: -1},
	})
}
