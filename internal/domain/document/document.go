// Package document defines vehicle documents (registration, invoices,
// inspection reports) stored inline with the record.
package document

import (
	"errors"
	"strings"
	"time"
)

// MaxPayloadBytes bounds the inline payload of one document.
const MaxPayloadBytes = 4 << 20

// Document is attached to exactly one vehicle.
type Document struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	VehicleID string    `json:"vehicle_id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload,omitempty"` // omitted in listings
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest attaches a new document to a vehicle.
type CreateRequest struct {
	VehicleID string `json:"vehicle_id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Payload   string `json:"payload"`
}

// Validate checks required fields and the payload size.
func (r *CreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	if r.Kind == "" {
		r.Kind = "other"
	}
	if r.VehicleID == "" {
		return errors.New("vehicle_id is required")
	}
	if r.Title == "" {
		return errors.New("title is required")
	}
	if len(r.Payload) > MaxPayloadBytes {
		return errors.New("payload too large")
	}
	return nil
}
