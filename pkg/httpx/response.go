// Package httpx holds the small HTTP plumbing shared by handlers:
// JSON responses, middleware chaining, bearer authentication and per-key
// rate limiting.
package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code. Token and
// credential responses must never be cached, so no-store is always set.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// FieldError is a form-level validation error tied to a request field.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// WriteFieldErrors writes a 422 response carrying per-field errors so the
// client can annotate its form.
func WriteFieldErrors(w http.ResponseWriter, errs ...FieldError) {
	WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}
