package supabase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell/internal/supabase"
)

const anonKey = "anon-key"

// fakeTokens is an in-memory TokenSource.
type fakeTokens struct {
	access  string
	refresh string
	stored  int
	cleared bool
}

func (f *fakeTokens) Tokens() (string, string, bool) {
	if f.access == "" {
		return "", "", false
	}
	return f.access, f.refresh, true
}

func (f *fakeTokens) StoreTokens(access, refresh string, expiresIn int) {
	f.access, f.refresh = access, refresh
	f.stored++
}

func (f *fakeTokens) ClearTokens() {
	f.access, f.refresh = "", ""
	f.cleared = true
}

func accessToken(t *testing.T, email string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("gotrue-secret"))
	require.NoError(t, err)
	return signed
}

func newClient(srv *httptest.Server, opts ...supabase.Option) *supabase.Client {
	return supabase.New(srv.URL, anonKey, opts...)
}

func TestNotConfigured(t *testing.T) {
	c := supabase.New("", "")
	err := c.Health(context.Background())
	assert.ErrorIs(t, err, supabase.ErrNotConfigured)
}

func TestRequestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, anonKey, r.Header.Get("apikey"))
		assert.Equal(t, "Bearer "+anonKey, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newClient(srv).Health(context.Background()))
}

func TestAPIErrorShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"postgrest", `{"message":"duplicate key value","code":"23505"}`, "duplicate key value"},
		{"gotrue msg", `{"msg":"User already registered"}`, "User already registered"},
		{"gotrue oauth", `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "Invalid login credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := newClient(srv).Health(context.Background())
			ae, ok := supabase.IsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, ae.Message)
			assert.Equal(t, http.StatusBadRequest, ae.Status)
		})
	}
}

func TestImplicitRefresh(t *testing.T) {
	expired := accessToken(t, "ada@example.com", time.Now().Add(-time.Minute))
	fresh := accessToken(t, "ada@example.com", time.Now().Add(time.Hour))

	var sawRefresh bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
			sawRefresh = true
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-1", body["refresh_token"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": fresh, "refresh_token": "refresh-2", "expires_in": 3600,
			})
		case r.URL.Path == "/auth/v1/user":
			assert.Equal(t, "Bearer "+fresh, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "ada@example.com"})
		default:
			t.Errorf("unexpected call: %s %s", r.Method, r.URL)
		}
	}))
	defer srv.Close()

	tokens := &fakeTokens{access: expired, refresh: "refresh-1"}
	c := newClient(srv).WithSession(tokens)

	user, err := c.GetUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, sawRefresh)
	assert.Equal(t, fresh, tokens.access)
	assert.Equal(t, "refresh-2", tokens.refresh)
}

func TestGetUserAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no remote call expected")
	}))
	defer srv.Close()

	_, err := newClient(srv).GetUser(context.Background())
	assert.ErrorIs(t, err, supabase.ErrNotAuthenticated)
}
