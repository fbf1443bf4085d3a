package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwell/inkwell/internal/blog"
)

type createBlogRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type apiMessage struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// APICreateBlog is the JSON endpoint for creating a post: 201 with the
// created record, 400 on missing fields, 401 without a session, 500
// with the remote error message on a rejected insert.
func (h *Handler) APICreateBlog(w http.ResponseWriter, r *http.Request) {
	var req createBlogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiMessage{Message: "Invalid request body"})
		return
	}
	if req.Title == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, apiMessage{Message: "Title and content are required"})
		return
	}

	client, sess := h.requestClient(w, r)
	if !sess.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, apiMessage{Message: "Not authenticated"})
		return
	}

	post, err := blog.NewService(client).Create(r.Context(), req.Title, req.Content, sess.Email())
	if err != nil {
		if errors.Is(err, blog.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, apiMessage{Message: "Title and content are required"})
			return
		}
		h.log.ErrorContext(r.Context(), "api create post failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, apiMessage{
			Message: "Error creating blog post",
			Error:   err.Error(),
		})
		return
	}

	h.invalidatePostList(r.Context())
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) apiMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, apiMessage{Message: "Method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
