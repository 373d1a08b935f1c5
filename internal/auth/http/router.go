// Package http exposes the credential flows as a thin JSON API. Handlers
// decode, call the service layer, and map domain errors to responses; no
// authentication state lives here.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/internal/auth/store"
	"github.com/lumastore/auth/pkg/httpx"
	"github.com/lumastore/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	logger       *slog.Logger
	store        store.Store
	startTime    time.Time
	buildVersion string

	Credential *service.CredentialService
	Tokens     *service.TokenService
}

func NewRouter(st store.Store, cred *service.CredentialService, tokens *service.TokenService, buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		logger:       logger,
		store:        st,
		startTime:    time.Now(),
		buildVersion: buildVersion,
		Credential:   cred,
		Tokens:       tokens,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP applies the global middleware chain in front of the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerCredentials()
	r.registerSessions()
	r.registerTwoFactor()
	r.registerSystem()
}

func (r *Router) registerCredentials() {
	registerHandler := &RegisterHandler{Credential: r.Credential}
	otpHandler := &OTPHandler{Credential: r.Credential}
	loginHandler := &LoginHandler{Credential: r.Credential}
	forgotHandler := &ForgotPasswordHandler{Credential: r.Credential}

	// Credential endpoints are brute-forceable; keep the strict limit.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(registerHandler.Handle),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/otp",
		httpx.Chain(http.HandlerFunc(otpHandler.Handle),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(loginHandler.Handle),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(forgotHandler.Handle),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerSessions() {
	tokenHandler := &TokenHandler{Credential: r.Credential}
	devicesHandler := &DevicesHandler{Credential: r.Credential}

	r.Mux.Handle("POST /v1/auth/refresh-token",
		httpx.Chain(http.HandlerFunc(tokenHandler.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(tokenHandler.HandleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/auth/devices",
		httpx.Chain(http.HandlerFunc(devicesHandler.Handle),
			httpx.AuthnMiddleware(r.Tokens.Access),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		))
}

func (r *Router) registerTwoFactor() {
	h := &TwoFactorHandler{Credential: r.Credential}

	r.Mux.Handle("POST /v1/auth/2fa/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.Tokens.Access),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/2fa/disable",
		httpx.Chain(http.HandlerFunc(h.HandleDisable),
			httpx.AuthnMiddleware(r.Tokens.Access),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.store))
}
