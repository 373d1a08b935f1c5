package http

import (
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// TwoFactorHandler handles TOTP setup and disable for the authenticated user.
type TwoFactorHandler struct {
	Credential *service.CredentialService
}

// HandleSetup handles POST /v1/auth/2fa/setup. The returned secret is shown
// exactly once and never re-displayed.
func (h *TwoFactorHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		writeServiceError(w, r, service.ErrUnauthorizedAccess)
		return
	}

	setup, err := h.Credential.SetupTwoFactor(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, setup)
}

type disableTwoFactorRequest struct {
	TOTPCode string `json:"totpCode"`
	Code     string `json:"code"`
}

// HandleDisable handles POST /v1/auth/2fa/disable.
func (h *TwoFactorHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		writeServiceError(w, r, service.ErrUnauthorizedAccess)
		return
	}

	var req disableTwoFactorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Credential.DisableTwoFactor(r.Context(), userID, req.TOTPCode, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "two-factor authentication disabled",
	})
}
