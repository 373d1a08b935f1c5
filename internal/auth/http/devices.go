package http

import (
	"net/http"
	"time"

	"github.com/lumastore/auth/internal/auth/service"
	"github.com/lumastore/auth/pkg/httpx"
)

// DevicesHandler handles GET /v1/auth/devices: the authenticated user's
// session audit trail.
type DevicesHandler struct {
	Credential *service.CredentialService
}

type deviceResponse struct {
	ID         string    `json:"id"`
	UserAgent  string    `json:"userAgent"`
	IP         string    `json:"ip"`
	LastActive time.Time `json:"lastActive"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *DevicesHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFromContext(r.Context())
	if userID == "" {
		writeServiceError(w, r, service.ErrUnauthorizedAccess)
		return
	}

	devices, err := h.Credential.ListDevices(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceResponse{
			ID:         d.ID,
			UserAgent:  d.UserAgent,
			IP:         d.IP,
			LastActive: d.LastActive,
			IsActive:   d.IsActive,
			CreatedAt:  d.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
}
