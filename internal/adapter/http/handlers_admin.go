package http

import (
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain/tenant"
)

// ListTenants handles GET /api/v1/admin/tenants
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	handleList(h.Tenants.List)(w, r)
}

// GetTenant handles GET /api/v1/admin/tenants/{id}
func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Tenants.Get)(w, r)
}

// ProvisionTenant handles POST /api/v1/admin/tenants
func (h *Handlers) ProvisionTenant(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Tenants.Provision)(w, r)
}

// UpdateTenant handles PUT /api/v1/admin/tenants/{id}
func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Tenants.Update)(w, r)
}

// ToggleTenantStatus handles POST /api/v1/admin/tenants/{id}/toggle-status
func (h *Handlers) ToggleTenantStatus(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tenants.ToggleStatus(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// SetTenantStatus handles PUT /api/v1/admin/tenants/{id}/status
func (h *Handlers) SetTenantStatus(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.StatusRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	t, err := h.Tenants.SetStatus(r.Context(), urlParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ResetTenantPassword handles POST /api/v1/admin/tenants/{id}/reset-password
func (h *Handlers) ResetTenantPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.ResetPasswordRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	if err := h.Tenants.ResetAdminPassword(r.Context(), urlParam(r, "id"), &req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
