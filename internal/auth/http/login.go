package http

import (
	"net"
	"net/http"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// LoginHandler handles POST /v1/auth/login.
type LoginHandler struct {
	Credential *service.CredentialService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
	Code     string `json:"code"`
}

func (h *LoginHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		httpx.WriteFieldErrors(w,
			httpx.FieldError{Path: "email", Message: "email and password are required"})
		return
	}

	pair, err := h.Credential.Login(r.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		TOTPCode:  req.TOTPCode,
		Code:      req.Code,
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}

// clientIP strips the port from RemoteAddr. Proxy headers are deliberately
// ignored; terminate trust at the edge.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
