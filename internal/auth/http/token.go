package http

import (
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// TokenHandler handles refresh-token rotation and logout.
type TokenHandler struct {
	Credential *service.CredentialService
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh handles POST /v1/auth/refresh-token.
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteFieldErrors(w,
			httpx.FieldError{Path: "refreshToken", Message: "refresh token is required"})
		return
	}

	pair, err := h.Credential.Refresh(r.Context(), service.RefreshInput{
		RefreshToken: req.RefreshToken,
		UserAgent:    r.UserAgent(),
		IP:           clientIP(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// HandleLogout handles POST /v1/auth/logout.
func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteFieldErrors(w,
			httpx.FieldError{Path: "refreshToken", Message: "refresh token is required"})
		return
	}

	if err := h.Credential.Logout(r.Context(), req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}
