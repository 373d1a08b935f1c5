package http

import (
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// RegisterHandler handles POST /v1/auth/register.
type RegisterHandler struct {
	Credential *service.CredentialService
}

type registerRequest struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	PhoneNumber     string `json:"phoneNumber"`
	Code            string `json:"code"`
}

func (h *RegisterHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if errs := validateRegister(req); len(errs) > 0 {
		httpx.WriteFieldErrors(w, errs...)
		return
	}

	summary, err := h.Credential.Register(r.Context(), service.RegisterInput{
		Email:           req.Email,
		Name:            req.Name,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		Code:            req.Code,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, summary)
}

func validateRegister(req registerRequest) []httpx.FieldError {
	var errs []httpx.FieldError
	if req.Email == "" {
		errs = append(errs, httpx.FieldError{Path: "email", Message: "email is required"})
	}
	if req.Name == "" {
		errs = append(errs, httpx.FieldError{Path: "name", Message: "name is required"})
	}
	if len(req.Password) < 8 {
		errs = append(errs, httpx.FieldError{Path: "password", Message: "password must be at least 8 characters"})
	}
	if req.Code == "" {
		errs = append(errs, httpx.FieldError{Path: "code", Message: "verification code is required"})
	}
	return errs
}
