// Package http provides the REST adapter of the dealership API: handlers,
// routes and HTTP-only middleware.
package http

import (
	"net/http"

	"github.com/Strob0t/DealerForge/internal/service"
)

const defaultBodyLimit = 1 << 20 // 1 MB

// Handlers holds the services the REST handlers delegate to.
type Handlers struct {
	Auth      *service.AuthService
	Tenants   *service.TenantService
	Clients   *service.ClientService
	Options   *service.OptionService
	Vehicles  *service.VehicleService
	Sales     *service.SaleService
	Entries   *service.EntryService
	Documents *service.DocumentService
	Settings  *service.SettingsService

	// BodyLimit caps JSON request bodies. Document uploads carry their
	// payload inline, so it must exceed document.MaxPayloadBytes.
	BodyLimit int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return defaultBodyLimit
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
