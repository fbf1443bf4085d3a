package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/inkwell/internal/blog"
	"github.com/inkwell/inkwell/internal/cache"
	"github.com/inkwell/inkwell/internal/session"
	"github.com/inkwell/inkwell/internal/supabase"
)

type homeData struct {
	baseData
	Posts []postView
}

type postData struct {
	baseData
	Post *postView
}

// Home renders the public landing page with every post, newest first.
// The list is served through the short-TTL cache; when the backend is
// not configured the page degrades to a setup notice.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess := h.loadSession(w, r)
	data := homeData{baseData: h.base("All Blogs", r, sess)}

	if h.cfg.HasEnvVars() {
		posts, err := cache.GetOrSet(r.Context(), h.cache, postListCacheKey,
			func(ctx context.Context) ([]blog.Post, time.Duration, error) {
				list, err := blog.NewService(h.client).ListAll(ctx)
				return list, h.cfg.CacheTTL, err
			})
		if err != nil {
			h.serverError(w, r, "list posts", err)
			return
		}
		data.Posts = h.render.postViews(posts, sess.Email(), false)
	}

	h.renderPage(w, r, http.StatusOK, "home", data)
}

// PostPage renders a single post with its full Markdown body.
func (h *Handler) PostPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	client, sess := h.requestClient(w, r)
	post, err := blog.NewService(client).Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			h.NotFound(w, r)
			return
		}
		h.serverError(w, r, "get post", err)
		return
	}

	views := h.render.postViews([]blog.Post{*post}, sess.Email(), true)
	data := postData{baseData: h.base(post.Title, r, sess), Post: &views[0]}
	h.renderPage(w, r, http.StatusOK, "post", data)
}

// Protected renders the authenticated list with edit affordances for
// posts owned by the viewer. Always fetched fresh, never cached.
func (h *Handler) Protected(w http.ResponseWriter, r *http.Request) {
	client, sess := h.requestClient(w, r)

	posts, err := blog.NewService(client).ListAll(r.Context())
	if err != nil {
		h.serverError(w, r, "list posts", err)
		return
	}

	data := homeData{
		baseData: h.base("All Blogs", r, sess),
		Posts:    h.render.postViews(posts, sess.Email(), false),
	}
	h.renderPage(w, r, http.StatusOK, "protected", data)
}

func (h *Handler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "sign-up", h.base("Sign up", r, h.loadSession(w, r)))
}

func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "sign-in", h.base("Sign in", r, h.loadSession(w, r)))
}

func (h *Handler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "forgot-password", h.base("Reset password", r, h.loadSession(w, r)))
}

func (h *Handler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "reset-password", h.base("Choose a new password", r, h.loadSession(w, r)))
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusNotFound, "not-found", h.base("Not found", r, h.loadSession(w, r)))
}

func (h *Handler) base(title string, r *http.Request, sess *session.Session) baseData {
	return baseData{
		Title:      title,
		Banner:     bannerFromQuery(r),
		UserEmail:  sess.Email(),
		HasEnvVars: h.cfg.HasEnvVars(),
	}
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := h.render.page(w, status, name, data); err != nil {
		h.log.ErrorContext(r.Context(), "render failed",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.log.ErrorContext(r.Context(), op+" failed", slog.String("error", err.Error()))
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
