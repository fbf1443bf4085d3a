package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell/inkwell/internal/blog"
	"github.com/inkwell/inkwell/internal/htmx"
	"github.com/inkwell/inkwell/internal/supabase"
)

type editorData struct {
	baseData
	Posts   []postView
	AddForm addFormView
}

type listData struct {
	Posts []postView
}

// EditorPage renders the blog editor: the add form plus the viewer's
// own posts, newest first.
func (h *Handler) EditorPage(w http.ResponseWriter, r *http.Request) {
	client, sess := h.requestClient(w, r)

	posts, err := blog.NewService(client).ListMine(r.Context(), sess.Email())
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}

	data := editorData{
		baseData: h.base("Your Blogs", r, sess),
		Posts:    h.render.postViews(posts, sess.Email(), false),
	}
	h.renderPage(w, r, http.StatusOK, "blog", data)
}

// PostListFragment re-fetches the owned-posts list and returns it as a
// fragment. Also the target of the edit form's Cancel button.
func (h *Handler) PostListFragment(w http.ResponseWriter, r *http.Request) {
	client, sess := h.requestClient(w, r)

	posts, err := blog.NewService(client).ListMine(r.Context(), sess.Email())
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}

	h.renderFragment(w, r, http.StatusOK,
		part("blog-list", listData{Posts: h.render.postViews(posts, sess.Email(), false)}))
}

// AddPost creates a post from the add form. Validation and remote
// failures return the form back with an error and the values intact;
// success returns a fresh list plus a cleared form via an out-of-band
// swap.
func (h *Handler) AddPost(w http.ResponseWriter, r *http.Request) {
	title := r.FormValue("title")
	content := r.FormValue("content")

	client, sess := h.requestClient(w, r)
	ctx := r.Context()

	if _, err := blog.NewService(client).Create(ctx, title, content, sess.Email()); err != nil {
		htmx.Retarget(w, "#add-form")
		w.Header().Set(htmx.HeaderHXReswap, "outerHTML")
		h.renderFragment(w, r, http.StatusUnprocessableEntity,
			part("blog-add-form", addFormView{Title: title, Content: content, Error: blogErrMessage(err, "adding")}))
		return
	}

	h.invalidatePostList(ctx)

	posts, err := blog.NewService(client).ListMine(ctx, sess.Email())
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}

	h.renderFragment(w, r, http.StatusOK,
		part("blog-list", listData{Posts: h.render.postViews(posts, sess.Email(), false)}),
		part("blog-add-form", addFormView{OOB: true}),
	)
}

// EditFormFragment returns the edit form for one of the viewer's posts,
// prefilled with its current values. Posts owned by someone else are
// reported as not found.
func (h *Handler) EditFormFragment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	client, sess := h.requestClient(w, r)
	post, err := blog.NewService(client).Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.serverError(w, r, "get post", err)
		return
	}
	if post.UserEmail != sess.Email() {
		http.NotFound(w, r)
		return
	}

	h.renderFragment(w, r, http.StatusOK,
		part("blog-edit-form", editFormView{ID: post.ID, Title: post.Title, Content: post.Content}))
}

// UpdatePost applies the edit form. The data layer enforces ownership;
// a non-owner update comes back as a not-found error on the form.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")

	client, sess := h.requestClient(w, r)
	ctx := r.Context()

	if _, err := blog.NewService(client).Update(ctx, id, title, content, sess.Email()); err != nil {
		htmx.Retarget(w, "#edit-form-"+strconv.FormatInt(id, 10))
		w.Header().Set(htmx.HeaderHXReswap, "outerHTML")
		h.renderFragment(w, r, http.StatusUnprocessableEntity,
			part("blog-edit-form", editFormView{ID: id, Title: title, Content: content, Error: blogErrMessage(err, "updating")}))
		return
	}

	h.invalidatePostList(ctx)

	posts, err := blog.NewService(client).ListMine(ctx, sess.Email())
	if err != nil {
		h.serverError(w, r, "list own posts", err)
		return
	}

	h.renderFragment(w, r, http.StatusOK,
		part("blog-list", listData{Posts: h.render.postViews(posts, sess.Email(), false)}))
}

func (h *Handler) renderFragment(w http.ResponseWriter, r *http.Request, status int, parts ...fragmentPart) {
	if err := h.render.fragment(w, status, parts...); err != nil {
		h.log.ErrorContext(r.Context(), "render fragment failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *Handler) invalidatePostList(ctx context.Context) {
	if err := h.cache.Delete(ctx, postListCacheKey); err != nil {
		h.log.WarnContext(ctx, "post list cache invalidation failed", slog.String("error", err.Error()))
	}
}

// blogErrMessage maps blog service errors to the strings shown inline
// in the editor forms.
func blogErrMessage(err error, verb string) string {
	switch {
	case errors.Is(err, blog.ErrValidation):
		return "Please fill in both the title and content fields."
	case errors.Is(err, blog.ErrNotOwner):
		return "Post not found or not owned by you."
	case errors.Is(err, blog.ErrNotAuthenticated):
		return "You must be logged in to add a blog post."
	}
	if apiErr, ok := supabase.IsAPIError(err); ok && apiErr.Message != "" {
		return "Error " + verb + " blog: " + apiErr.Message
	}
	return "Error " + verb + " blog. Please try again."
}
