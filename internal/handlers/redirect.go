package handlers

import (
	"net/http"
	"net/url"

	"github.com/inkwell/inkwell/internal/htmx"
)

// redirectEncoded issues a redirect to path carrying a query-encoded
// (status, message) pair; the target page renders it as a banner.
func redirectEncoded(w http.ResponseWriter, r *http.Request, status, path, message string) {
	q := url.Values{}
	q.Set("status", status)
	q.Set("message", message)
	htmx.Redirect(w, r, path+"?"+q.Encode())
}

// bannerFromQuery recovers the redirect banner from query parameters.
func bannerFromQuery(r *http.Request) *Banner {
	message := r.URL.Query().Get("message")
	if message == "" {
		return nil
	}
	status := r.URL.Query().Get("status")
	if status != "success" {
		status = "error"
	}
	return &Banner{Status: status, Message: message}
}
