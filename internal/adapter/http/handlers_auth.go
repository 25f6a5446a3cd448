package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrTenantSuspended) {
			slog.InfoContext(r.Context(), "login failed", "username", req.Username, "reason", err.Error())
		}
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.ChangePasswordRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
