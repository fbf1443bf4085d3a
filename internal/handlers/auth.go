package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkwell/inkwell/internal/htmx"
	"github.com/inkwell/inkwell/internal/profile"
	"github.com/inkwell/inkwell/internal/supabase"
)

// SignUp creates a remote identity, then inserts the shadow profile
// row. When the second write fails the just-created identity is
// deleted best effort, so the two stores do not drift apart.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))

	if email == "" || password == "" || firstName == "" || lastName == "" {
		redirectEncoded(w, r, "error", "/sign-up", "Email, password, and names are required")
		return
	}

	ctx := r.Context()
	client, _ := h.requestClient(w, r)

	user, err := client.SignUp(ctx, email, password, h.cfg.BaseURL+"/auth/callback")
	if err != nil {
		h.log.ErrorContext(ctx, "sign-up rejected", slog.String("error", err.Error()))
		redirectEncoded(w, r, "error", "/sign-up", errMessage(err))
		return
	}
	if user == nil {
		redirectEncoded(w, r, "error", "/sign-up", "Something went wrong during sign-up.")
		return
	}

	if err := profile.NewStore(client).Insert(ctx, email, firstName, lastName, password); err != nil {
		h.log.ErrorContext(ctx, "shadow profile insert failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		h.compensateSignUp(ctx, user.ID)
		redirectEncoded(w, r, "error", "/sign-up", "Failed to save user details")
		return
	}

	redirectEncoded(w, r, "success", "/sign-up",
		"Thanks for signing up! Please check your email for a verification link.")
}

// compensateSignUp deletes a remote identity whose shadow profile row
// could not be written. Requires the service-role key; without it the
// inconsistency is only logged.
func (h *Handler) compensateSignUp(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := h.client.AdminDeleteUser(ctx, userID); err != nil {
		h.log.WarnContext(ctx, "could not delete orphaned identity",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// SignIn authenticates against the remote store and requires a shadow
// profile row to exist before letting the user in.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		redirectEncoded(w, r, "error", "/sign-in", "Email and password are required")
		return
	}

	ctx := r.Context()
	client, _ := h.requestClient(w, r)

	if _, err := client.SignInWithPassword(ctx, email, password); err != nil {
		redirectEncoded(w, r, "error", "/sign-in", "Invalid credentials")
		return
	}

	if _, err := profile.NewStore(client).GetByEmail(ctx, email); err != nil {
		redirectEncoded(w, r, "error", "/sign-in", "User details not found")
		return
	}

	htmx.Redirect(w, r, "/blog-page")
}

// SignOut invalidates the remote session and clears the cookies.
// Remote failures are ignored; the local session is gone either way.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	client, _ := h.requestClient(w, r)
	if err := client.SignOut(r.Context()); err != nil {
		h.log.WarnContext(r.Context(), "remote sign-out failed", slog.String("error", err.Error()))
	}
	htmx.Redirect(w, r, "/sign-in")
}

// ForgotPassword triggers the remote password-reset email. An optional
// callbackUrl form field overrides the post-request redirect.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	callbackURL := r.FormValue("callbackUrl")

	if email == "" {
		redirectEncoded(w, r, "error", "/forgot-password", "Email is required")
		return
	}

	ctx := r.Context()
	client, _ := h.requestClient(w, r)

	redirectTo := h.cfg.BaseURL + "/auth/callback?redirect_to=/protected/reset-password"
	if err := client.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		h.log.ErrorContext(ctx, "password reset request failed", slog.String("error", err.Error()))
		redirectEncoded(w, r, "error", "/forgot-password", "Could not reset password")
		return
	}

	if callbackURL != "" {
		htmx.Redirect(w, r, callbackURL)
		return
	}

	redirectEncoded(w, r, "success", "/forgot-password",
		"Check your email for a link to reset your password.")
}

// ResetPassword updates the password of the signed-in user. Each
// validation failure is a terminal outcome; no branch falls through.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	password := r.FormValue("password")
	confirm := r.FormValue("confirmPassword")

	if password == "" || confirm == "" {
		redirectEncoded(w, r, "error", "/protected/reset-password",
			"Password and confirm password are required")
		return
	}
	if password != confirm {
		redirectEncoded(w, r, "error", "/protected/reset-password", "Passwords do not match")
		return
	}

	client, _ := h.requestClient(w, r)
	if err := client.UpdateUserPassword(r.Context(), password); err != nil {
		redirectEncoded(w, r, "error", "/protected/reset-password", "Password update failed")
		return
	}

	redirectEncoded(w, r, "success", "/protected/reset-password", "Password updated")
}

// AuthCallback is the landing target of auth emails; it forwards the
// browser to the requested page.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("redirect_to")
	if target == "" || !strings.HasPrefix(target, "/") {
		target = "/"
	}
	htmx.Redirect(w, r, target)
}

// errMessage maps an error to the string shown to the user. Remote API
// errors carry their own message; anything else gets a generic one.
func errMessage(err error) string {
	if apiErr, ok := supabase.IsAPIError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
