// Package handlers wires the HTTP surface: auth form actions, the
// public and protected pages, the htmx blog editor, and the JSON API.
// Each request gets its own Supabase client bound to the request's
// session cookies, so token refreshes flow back to the browser.
package handlers

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/inkwell/internal/blog"
	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/config"
	"github.com/inkwell/inkwell/internal/cookie"
	"github.com/inkwell/inkwell/internal/session"
	"github.com/inkwell/inkwell/internal/supabase"
)

// postListCacheKey fronts the public landing list only; authenticated
// views always hit the backend directly.
const postListCacheKey = "posts:all"

type Handler struct {
	cfg     *config.Config
	log     *slog.Logger
	cookies *cookie.Manager
	client  *supabase.Client
	cache   cache.Cache[[]blog.Post]
	render  *renderer
	static  fs.FS
}

// New builds the handler set. client is the anonymous base client;
// per-request clients are derived from it via WithSession.
func New(cfg *config.Config, log *slog.Logger, cookies *cookie.Manager, client *supabase.Client, posts cache.Cache[[]blog.Post], assets fs.FS) (*Handler, error) {
	render, err := newRenderer(assets)
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:     cfg,
		log:     log,
		cookies: cookies,
		client:  client,
		cache:   posts,
		render:  render,
		static:  static,
	}, nil
}

// Routes mounts every route on a fresh chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID())
	r.Use(RequestLogger(h.log))
	r.Use(Recoverer(h.log))

	r.Get("/", h.Home)
	r.Get("/blog/{id}", h.PostPage)

	r.Get("/sign-up", h.SignUpPage)
	r.Post("/sign-up", h.SignUp)
	r.Get("/sign-in", h.SignInPage)
	r.Post("/sign-in", h.SignIn)
	r.Post("/sign-out", h.SignOut)
	r.Get("/forgot-password", h.ForgotPasswordPage)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/auth/callback", h.AuthCallback)

	r.Route("/protected", func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/", h.Protected)
		r.Get("/reset-password", h.ResetPasswordPage)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Route("/blog-page", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Get("/", h.EditorPage)
			r.Get("/posts", h.PostListFragment)
			r.Post("/posts", h.AddPost)
			r.Get("/posts/{id}/edit", h.EditFormFragment)
			r.Put("/posts/{id}", h.UpdatePost)
		})
		r.Route("/api/blogs", func(r chi.Router) {
			r.MethodNotAllowed(h.apiMethodNotAllowed)
			r.Post("/", h.APICreateBlog)
		})
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.static))))
	r.NotFound(h.NotFound)
	return r
}

// requestClient binds a Supabase client and session to one request.
// The returned session reflects the cookies as they were on arrival.
func (h *Handler) requestClient(w http.ResponseWriter, r *http.Request) (*supabase.Client, *session.Session) {
	sm := session.NewManager(h.cookies, h.log, w, r)
	return h.client.WithSession(sm), sm.Load()
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) *session.Session {
	return session.NewManager(h.cookies, h.log, w, r).Load()
}
