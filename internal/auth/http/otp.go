package http

import (
	"net/http"

	"github.com/lumastore/auth/internal/auth/domain"
	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// OTPHandler handles POST /v1/auth/otp.
type OTPHandler struct {
	Credential *service.CredentialService
}

type otpRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

func (h *OTPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	purpose := domain.CodePurpose(req.Purpose)
	if req.Email == "" || !purpose.Valid() {
		var errs []httpx.FieldError
		if req.Email == "" {
			errs = append(errs, httpx.FieldError{Path: "email", Message: "email is required"})
		}
		if !purpose.Valid() {
			errs = append(errs, httpx.FieldError{Path: "purpose", Message: "unknown purpose"})
		}
		httpx.WriteFieldErrors(w, errs...)
		return
	}

	if err := h.Credential.SendOTP(r.Context(), req.Email, purpose); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "verification code sent",
	})
}
