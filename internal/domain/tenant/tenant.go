// Package tenant defines the dealership tenant model and its lifecycle requests.
package tenant

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusBlocked
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusBlocked {
		return StatusActive
	}
	return StatusBlocked
}

// Tenant represents one dealership. Tenants are never hard-deleted.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether users of the tenant may operate.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == StatusActive
}

// Summary is a tenant as listed on the control plane, with its admin login.
type Summary struct {
	Tenant
	AdminUsername string `json:"admin_username"`
}

// CreateRequest provisions a tenant together with its first admin user.
type CreateRequest struct {
	Name          string `json:"name"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.AdminUsername = strings.TrimSpace(r.AdminUsername)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.AdminUsername == "" {
		return errors.New("admin_username is required")
	}
	if len(r.AdminPassword) < 8 {
		return errors.New("admin_password must be at least 8 characters")
	}
	return nil
}

// UpdateRequest renames a tenant and/or its admin login.
type UpdateRequest struct {
	Name          string `json:"name,omitempty"`
	AdminUsername string `json:"admin_username,omitempty"`
}

// Validate checks that at least one field is set.
func (r *UpdateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.AdminUsername = strings.TrimSpace(r.AdminUsername)
	if r.Name == "" && r.AdminUsername == "" {
		return errors.New("name or admin_username is required")
	}
	return nil
}

// UpdateResult reports the outcome of an UpdateRequest. When the tenant had
// no admin user and one was created, DefaultCredentialApplied is true and
// the admin must log in with the configured default password.
type UpdateResult struct {
	Summary
	DefaultCredentialApplied bool `json:"default_credential_applied"`
}

// StatusRequest sets a tenant's status explicitly.
type StatusRequest struct {
	Status Status `json:"status"`
}

// ResetPasswordRequest replaces the tenant admin's password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks the new password length.
func (r *ResetPasswordRequest) Validate() error {
	if len(r.NewPassword) < 8 {
		return errors.New("new_password must be at least 8 characters")
	}
	return nil
}

// StatusChange is published whenever a tenant's status changes so that
// every instance can drop cached status and close live connections.
type StatusChange struct {
	TenantID string `json:"tenant_id"`
	Status   Status `json:"status"`
}
