// Package event defines the domain events pushed to live tenant feeds.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of domain event.
type Type string

const (
	TypeVehicleCreated Type = "vehicle.created"
	TypeVehicleUpdated Type = "vehicle.updated"
	TypeVehicleDeleted Type = "vehicle.deleted"
	TypeSaleCreated    Type = "sale.created"
	TypeSaleCancelled  Type = "sale.cancelled"
	TypeTenantStatus   Type = "tenant.status"
)

// Event is one immutable notification scoped to a tenant.
type Event struct {
	Type      Type            `json:"type"`
	TenantID  string          `json:"tenant_id"`
	EntityID  string          `json:"entity_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// New builds an event, marshalling payload. A payload that fails to
// marshal is dropped rather than failing the caller.
func New(typ Type, tenantID, entityID string, payload any) Event {
	ev := Event{Type: typ, TenantID: tenantID, EntityID: entityID, CreatedAt: time.Now().UTC()}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	return ev
}
