package http

import (
	"net/http"

	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

// --- Clients ---

// ListClients handles GET /api/v1/clients?search=
func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	items, err := h.Clients.List(r.Context(), client.ListFilter{Search: r.URL.Query().Get("search")})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeList(w, items)
}

// GetClient handles GET /api/v1/clients/{id}
func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Clients.Get)(w, r)
}

// CreateClient handles POST /api/v1/clients
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Clients.Create)(w, r)
}

// UpdateClient handles PUT /api/v1/clients/{id}
func (h *Handlers) UpdateClient(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Clients.Update)(w, r)
}

// DeleteClient handles DELETE /api/v1/clients/{id}
func (h *Handlers) DeleteClient(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Clients.Delete)(w, r)
}

// --- Options ---

// ListOptions handles GET /api/v1/options
func (h *Handlers) ListOptions(w http.ResponseWriter, r *http.Request) {
	handleList(h.Options.List)(w, r)
}

// CreateOption handles POST /api/v1/options
func (h *Handlers) CreateOption(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Options.Create)(w, r)
}

// RenameOption handles PUT /api/v1/options/{id}
func (h *Handlers) RenameOption(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Options.Rename)(w, r)
}

// DeleteOption handles DELETE /api/v1/options/{id}
func (h *Handlers) DeleteOption(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Options.Delete)(w, r)
}

// --- Vehicles ---

// ListVehicles handles GET /api/v1/vehicles?status=&search=&year_min=&year_max=
func (h *Handlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := vehicle.ListFilter{
		Status: vehicle.Status(q.Get("status")),
		Search: q.Get("search"),
	}
	var ok bool
	if f.YearMin, ok = queryInt(w, r, "year_min"); !ok {
		return
	}
	if f.YearMax, ok = queryInt(w, r, "year_max"); !ok {
		return
	}

	items, err := h.Vehicles.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeList(w, items)
}

// GetVehicle handles GET /api/v1/vehicles/{id}
func (h *Handlers) GetVehicle(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Vehicles.Get)(w, r)
}

// CreateVehicle handles POST /api/v1/vehicles
func (h *Handlers) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Vehicles.Create)(w, r)
}

// UpdateVehicle handles PUT /api/v1/vehicles/{id}
func (h *Handlers) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Vehicles.Update)(w, r)
}

// DeleteVehicle handles DELETE /api/v1/vehicles/{id}
func (h *Handlers) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Vehicles.Delete)(w, r)
}

// VehicleSummary handles GET /api/v1/vehicles/{id}/summary
func (h *Handlers) VehicleSummary(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Vehicles.Summary)(w, r)
}

// ListVehicleDocuments handles GET /api/v1/vehicles/{id}/documents
func (h *Handlers) ListVehicleDocuments(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Documents.ListByVehicle)(w, r)
}

// --- Sales ---

// ListSales handles GET /api/v1/sales?vehicle_id=&client_id=
func (h *Handlers) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Sales.List(r.Context(), sale.ListFilter{VehicleID: q.Get("vehicle_id"), ClientID: q.Get("client_id")})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeList(w, items)
}

// GetSale handles GET /api/v1/sales/{id}
func (h *Handlers) GetSale(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Sales.Get)(w, r)
}

// CreateSale handles POST /api/v1/sales
func (h *Handlers) CreateSale(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Sales.Create)(w, r)
}

// CancelSale handles POST /api/v1/sales/{id}/cancel and DELETE /api/v1/sales/{id}
func (h *Handlers) CancelSale(w http.ResponseWriter, r *http.Request) {
	sl, err := h.Sales.Cancel(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// --- Entries ---

// ListEntries handles GET /api/v1/entries?vehicle_id=&kind=&from=&to=
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Entries.List(r.Context(), entry.ListFilter{
		VehicleID: q.Get("vehicle_id"),
		Kind:      entry.Kind(q.Get("kind")),
		From:      q.Get("from"),
		To:        q.Get("to"),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeList(w, items)
}

// GetEntry handles GET /api/v1/entries/{id}
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Entries.Get)(w, r)
}

// CreateEntry handles POST /api/v1/entries
func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Entries.Create)(w, r)
}

// UpdateEntry handles PUT /api/v1/entries/{id}
func (h *Handlers) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.bodyLimit(), h.Entries.Update)(w, r)
}

// DeleteEntry handles DELETE /api/v1/entries/{id}
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Entries.Delete)(w, r)
}

// --- Documents ---

// CreateDocument handles POST /api/v1/documents
func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.bodyLimit(), h.Documents.Create)(w, r)
}

// GetDocument handles GET /api/v1/documents/{id}
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Documents.Get)(w, r)
}

// DeleteDocument handles DELETE /api/v1/documents/{id}
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Documents.Delete)(w, r)
}

// --- Settings ---

// GetSettings handles GET /api/v1/settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	d, err := h.Settings.Get(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[settings.UpdateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	d, err := h.Settings.Update(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
