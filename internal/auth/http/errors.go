package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
	"github.com/lumastore/auth/pkg/slogx"
)

// decodeJSON reads a JSON body into v, capping the body at 1 MiB.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_request",
			"message": "request body must be valid JSON",
		})
		return false
	}
	return true
}

// writeServiceError maps a domain error to a response: field errors become
// 422 with a path annotation for form display, auth-state errors become 401,
// everything else is a 500 with no detail leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *service.Error
	if errors.As(err, &de) {
		if de.Field != "" {
			httpx.WriteFieldErrors(w, httpx.FieldError{Path: de.Field, Message: messageFor(de)})
			return
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error":   de.Code,
			"message": messageFor(de),
		})
		return
	}

	slogx.FromContext(r.Context()).Error("unhandled service error", "err", err)
	httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal_error",
	})
}

func messageFor(e *service.Error) string {
	switch e {
	case service.ErrInvalidOTP:
		return "The verification code is incorrect."
	case service.ErrExpiredOTP:
		return "The verification code has expired. Request a new one."
	case service.ErrOTPThrottled:
		return "A code was sent recently. Wait before requesting another."
	case service.ErrEmailAlreadyInUse:
		return "This email address is already registered."
	case service.ErrEmailNotFound:
		return "No account exists for this email address."
	case service.ErrEmailSendFailure:
		return "The verification email could not be sent. Try again."
	case service.ErrIncorrectPassword:
		return "The password is incorrect."
	case service.ErrPasswordMismatch:
		return "The passwords do not match."
	case service.ErrInvalidTOTP:
		return "The authenticator code is incorrect."
	case service.ErrInvalidTOTPAndCode:
		return "An authenticator code or emailed code is required."
	case service.ErrTOTPAlreadyEnabled:
		return "Two-factor authentication is already enabled."
	case service.ErrTOTPNotEnabled:
		return "Two-factor authentication is not enabled."
	case service.ErrRefreshTokenAlreadyUsed:
		return "This session is no longer valid. Sign in again."
	case service.ErrUnauthorizedAccess:
		return "Unauthorized."
	default:
		return "Request failed."
	}
}
