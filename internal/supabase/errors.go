package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotConfigured is returned when the client is used without a
	// project URL or API key.
	ErrNotConfigured = errors.New("supabase: client not configured")

	// ErrNotAuthenticated is returned when an operation requires a live
	// session and the request context has none.
	ErrNotAuthenticated = errors.New("supabase: not authenticated")

	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("supabase: row not found")
)

// APIError is a rejection from the remote store. The message string is the
// entire error payload surfaced to users.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAPIError extracts an APIError if present.
func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// parseAPIError decodes the error body shapes used by GoTrue and PostgREST
// into a single APIError.
func parseAPIError(status int, body []byte) error {
	var payload struct {
		// PostgREST
		Message string `json:"message"`
		Code    string `json:"code"`
		// GoTrue
		Msg              string `json:"msg"`
		ErrorCode        string `json:"error_code"`
		ErrorField       string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := firstNonEmpty(
		payload.Message,
		payload.Msg,
		payload.ErrorDescription,
		payload.ErrorField,
		strings.TrimSpace(string(body)),
	)
	if msg == "" {
		msg = fmt.Sprintf("remote store error (status %d)", status)
	}

	ae := &APIError{
		Status:  status,
		Code:    firstNonEmpty(payload.Code, payload.ErrorCode),
		Message: msg,
	}

	// PGRST116: object requested but zero (or several) rows matched.
	if ae.Code == "PGRST116" || status == http.StatusNotAcceptable {
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return ae
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
