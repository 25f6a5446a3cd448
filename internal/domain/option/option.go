// Package option defines the per-tenant catalog of vehicle options
// (air conditioning, alloy wheels, ...).
package option

import (
	"errors"
	"strings"
	"time"
)

// Option is one catalog entry. Names are unique within a tenant.
type Option struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Input is the create/rename payload.
type Input struct {
	Name string `json:"name"`
}

// Validate trims and checks the name.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return errors.New("name is required")
	}
	if len(in.Name) > 100 {
		return errors.New("name too long (max 100 chars)")
	}
	return nil
}
