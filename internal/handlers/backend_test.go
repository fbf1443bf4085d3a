package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell/internal/blog"
	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/cookie"
	"github.com/inkwell/inkwell/internal/handlers"
	"github.com/inkwell/inkwell/internal/logger"
	"github.com/inkwell/inkwell/internal/session"
	"github.com/inkwell/inkwell/internal/supabase"
	"github.com/inkwell/inkwell/web"
)

// fakeBackend is an in-memory stand-in for the hosted BaaS, speaking
// just enough GoTrue and PostgREST for the handler tests.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu           sync.Mutex
	creds        map[string]string // email -> password
	users        []map[string]string
	posts        []blogRow
	nextID       int64
	adminDeleted []string
	calls        map[string]int

	failUsersInsert bool
	failBlogInsert  bool
}

type blogRow struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{
		t:      t,
		creds:  make(map[string]string),
		calls:  make(map[string]int),
		nextID: 1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", f.signup)
	mux.HandleFunc("/auth/v1/token", f.token)
	mux.HandleFunc("/auth/v1/logout", f.logout)
	mux.HandleFunc("/auth/v1/recover", f.recover)
	mux.HandleFunc("/auth/v1/user", f.updateUser)
	mux.HandleFunc("/auth/v1/admin/users/", f.adminDelete)
	mux.HandleFunc("/rest/v1/users", f.restUsers)
	mux.HandleFunc("/rest/v1/blog", f.restBlog)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBackend) record(r *http.Request) {
	f.calls[r.Method+" "+r.URL.Path]++
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeBackend) addUser(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds[email] = password
	f.users = append(f.users, map[string]string{
		"id": "u-" + email, "email": email, "first_name": "Test", "last_name": "User", "password": "x",
	})
}

func (f *fakeBackend) addPost(title, content, email string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.posts = append(f.posts, blogRow{
		ID: id, Title: title, Content: content, UserEmail: email,
		CreatedAt: time.Now().Add(time.Duration(id) * time.Second),
	})
	return id
}

func (f *fakeBackend) post(id int64) (blogRow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, true
		}
	}
	return blogRow{}, false
}

func (f *fakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if _, exists := f.creds[body.Email]; exists {
		writeStatus(w, http.StatusUnprocessableEntity, map[string]string{"msg": "User already registered"})
		return
	}
	f.creds[body.Email] = body.Password
	// Confirmation-pending shape: bare identity, no session.
	writeStatus(w, http.StatusOK, map[string]string{"id": "u-" + body.Email, "email": body.Email})
}

func (f *fakeBackend) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	var body struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	email := body.Email
	if r.URL.Query().Get("grant_type") == "refresh_token" {
		email = "refreshed@example.com"
	} else if f.creds[email] == "" || f.creds[email] != body.Password {
		writeStatus(w, http.StatusBadRequest, map[string]string{
			"error_code": "invalid_credentials", "msg": "Invalid login credentials",
		})
		return
	}

	writeStatus(w, http.StatusOK, map[string]any{
		"access_token":  signTestToken(f.t, email, time.Hour),
		"refresh_token": "refresh-" + email,
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]string{"id": "u-" + email, "email": email},
	})
}

func (f *fakeBackend) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.record(r)
	f.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeBackend) recover(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.record(r)
	f.mu.Unlock()
	writeStatus(w, http.StatusOK, map[string]string{})
}

func (f *fakeBackend) updateUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	auth := r.Header.Get("Authorization")
	if auth == "" || strings.HasSuffix(auth, testAnonKey) {
		writeStatus(w, http.StatusUnauthorized, map[string]string{"msg": "A valid session is required"})
		return
	}
	writeStatus(w, http.StatusOK, map[string]string{"id": "u1", "email": "user@example.com"})
}

func (f *fakeBackend) adminDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/auth/v1/admin/users/")
	f.adminDeleted = append(f.adminDeleted, id)
	writeStatus(w, http.StatusOK, map[string]string{})
}

func (f *fakeBackend) restUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	switch r.Method {
	case http.MethodPost:
		if f.failUsersInsert {
			writeStatus(w, http.StatusInternalServerError, map[string]string{
				"message": "insert rejected", "code": "XX000",
			})
			return
		}
		var row map[string]string
		_ = json.NewDecoder(r.Body).Decode(&row)
		f.users = append(f.users, row)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		email := strings.TrimPrefix(r.URL.Query().Get("email"), "eq.")
		for _, u := range f.users {
			if u["email"] == email {
				writeStatus(w, http.StatusOK, u)
				return
			}
		}
		writeStatus(w, http.StatusNotAcceptable, map[string]string{
			"message": "JSON object requested, multiple (or no) rows returned", "code": "PGRST116",
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBackend) restBlog(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(r)

	switch r.Method {
	case http.MethodGet:
		rows := f.filterPosts(r)
		if strings.Contains(r.Header.Get("Accept"), "pgrst.object") {
			if len(rows) != 1 {
				writeStatus(w, http.StatusNotAcceptable, map[string]string{
					"message": "JSON object requested, multiple (or no) rows returned", "code": "PGRST116",
				})
				return
			}
			writeStatus(w, http.StatusOK, rows[0])
			return
		}
		// Newest first, as requested by order=created_at.desc.
		reversed := make([]blogRow, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			reversed = append(reversed, rows[i])
		}
		writeStatus(w, http.StatusOK, reversed)
	case http.MethodPost:
		if f.failBlogInsert {
			writeStatus(w, http.StatusConflict, map[string]string{
				"message": "duplicate key value violates unique constraint", "code": "23505",
			})
			return
		}
		var row blogRow
		_ = json.NewDecoder(r.Body).Decode(&row)
		row.ID = f.nextID
		f.nextID++
		row.CreatedAt = time.Now().Add(time.Duration(row.ID) * time.Second)
		f.posts = append(f.posts, row)
		writeStatus(w, http.StatusCreated, []blogRow{row})
	case http.MethodPatch:
		var patch struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&patch)
		matched := f.filterPosts(r)
		updated := make([]blogRow, 0, len(matched))
		for i := range f.posts {
			for _, m := range matched {
				if f.posts[i].ID == m.ID {
					f.posts[i].Title = patch.Title
					f.posts[i].Content = patch.Content
					updated = append(updated, f.posts[i])
				}
			}
		}
		writeStatus(w, http.StatusOK, updated)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// filterPosts applies eq.-style query filters the way PostgREST does.
func (f *fakeBackend) filterPosts(r *http.Request) []blogRow {
	rows := make([]blogRow, 0, len(f.posts))
	q := r.URL.Query()
	for _, p := range f.posts {
		if v := q.Get("id"); v != "" && strconv.FormatInt(p.ID, 10) != strings.TrimPrefix(v, "eq.") {
			continue
		}
		if v := q.Get("user_email"); v != "" && p.UserEmail != strings.TrimPrefix(v, "eq.") {
			continue
		}
		rows = append(rows, p)
	}
	return rows
}

func writeStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const (
	testAnonKey      = "test-anon-key"
	testServiceKey   = "test-service-key"
	testCookieSecret = "0123456789abcdef0123456789abcdef"
)

// env wires a fake backend, the handler set, and a test server.
type env struct {
	fake    *fakeBackend
	cfg     *config.Config
	cookies *cookie.Manager
	ts      *httptest.Server
}

func newEnv(t *testing.T, mutate ...func(*config.Config)) *env {
	fake := newFakeBackend(t)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SupabaseURL = fake.srv.URL
	cfg.SupabaseAnonKey = testAnonKey
	cfg.SupabaseServiceKey = testServiceKey
	cfg.CookieSecret = testCookieSecret
	for _, m := range mutate {
		m(cfg)
	}

	cookies := cookie.New(cookie.WithSecret(cfg.CookieSecret))

	client := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey,
		supabase.WithServiceKey(cfg.SupabaseServiceKey),
		supabase.WithLogger(logger.NewNop()),
	)

	posts := cache.NewMemory[[]blog.Post](cfg.CacheTTL)
	t.Cleanup(func() { _ = posts.Close() })

	h, err := handlers.New(cfg, logger.NewNop(), cookies, client, posts, web.FS)
	require.NoError(t, err)

	ts := httptest.NewServer(h.Routes())
	t.Cleanup(ts.Close)

	return &env{fake: fake, cfg: cfg, cookies: cookies, ts: ts}
}

// authCookies mints a signed session cookie pair for email, the same
// way a successful sign-in would.
func (e *env) authCookies(t *testing.T, email string) []*http.Cookie {
	rec := httptest.NewRecorder()
	require.NoError(t, e.cookies.SetSigned(rec, session.AccessTokenCookie, signTestToken(t, email, time.Hour), 3600))
	require.NoError(t, e.cookies.SetSigned(rec, session.RefreshTokenCookie, "refresh-"+email, 3600))
	return rec.Result().Cookies()
}

func (e *env) request(t *testing.T, method, path string, form url.Values, cookies []*http.Cookie) *http.Response {
	t.Helper()

	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequest(method, e.ts.URL+path, strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, err = http.NewRequest(method, e.ts.URL+path, nil)
		require.NoError(t, err)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func signTestToken(t *testing.T, email string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-" + email,
		"email": email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-signing-secret"))
	require.NoError(t, err)
	return signed
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}
