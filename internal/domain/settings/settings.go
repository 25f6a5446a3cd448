// Package settings defines the per-tenant dealership profile.
package settings

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Dealership is the single configuration record of a tenant.
type Dealership struct {
	TenantID    string    `json:"tenant_id"`
	DisplayName string    `json:"display_name"`
	TaxID       string    `json:"tax_id"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateRequest replaces the dealership profile.
type UpdateRequest struct {
	DisplayName string `json:"display_name"`
	TaxID       string `json:"tax_id"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
}

// Validate trims fields and checks formats.
func (r *UpdateRequest) Validate() error {
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Email = strings.TrimSpace(r.Email)
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	if r.DisplayName == "" {
		return errors.New("display_name is required")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return errors.New("invalid email format")
		}
	}
	if r.State != "" && len(r.State) != 2 {
		return errors.New("state must be a two-letter code")
	}
	return nil
}
