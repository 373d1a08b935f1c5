package http

import (
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// ForgotPasswordHandler handles POST /v1/auth/forgot-password.
type ForgotPasswordHandler struct {
	Credential *service.CredentialService
}

type forgotPasswordRequest struct {
	Email              string `json:"email"`
	Code               string `json:"code"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

func (h *ForgotPasswordHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs []httpx.FieldError
	if req.Email == "" {
		errs = append(errs, httpx.FieldError{Path: "email", Message: "email is required"})
	}
	if req.Code == "" {
		errs = append(errs, httpx.FieldError{Path: "code", Message: "verification code is required"})
	}
	if len(req.NewPassword) < 8 {
		errs = append(errs, httpx.FieldError{Path: "newPassword", Message: "password must be at least 8 characters"})
	}
	if len(errs) > 0 {
		httpx.WriteFieldErrors(w, errs...)
		return
	}

	err := h.Credential.ForgotPassword(r.Context(), service.ForgotPasswordInput{
		Email:              req.Email,
		Code:               req.Code,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "password updated",
	})
}
