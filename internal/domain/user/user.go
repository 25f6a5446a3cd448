// Package user defines the user domain model for authentication and authorization.
package user

import (
	"errors"
	"strings"
	"time"
)

// Role is the stored authorization role of a user.
type Role string

const (
	RoleNone       Role = ""
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// LegacySuperAdminUsername is the username that older deployments treated
// as super-admin regardless of role.
const LegacySuperAdminUsername = "admin"

// Privilege is the effective authority of an authenticated caller. It is
// resolved once at authentication and never re-derived downstream.
type Privilege string

const (
	PrivilegeNone        Privilege = "none"
	PrivilegeTenantAdmin Privilege = "tenant_admin"
	PrivilegeSuperAdmin  Privilege = "super_admin"
)

// User is a login account. Super-admins have no tenant.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialized
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResolvePrivilege maps a role, tenant and username to a Privilege. When
// legacyAdmin is true a tenant-less user named "admin" is also treated as
// super-admin; a tenant-bound "admin" never is.
func ResolvePrivilege(role Role, tenantID, username string, legacyAdmin bool) Privilege {
	switch {
	case role == RoleSuperAdmin:
		return PrivilegeSuperAdmin
	case legacyAdmin && tenantID == "" && strings.EqualFold(username, LegacySuperAdminUsername):
		return PrivilegeSuperAdmin
	case role == RoleAdmin && tenantID != "":
		return PrivilegeTenantAdmin
	default:
		return PrivilegeNone
	}
}

// NormalizeUsername returns the canonical, case-folded form of a username.
// Usernames are unique across all tenants in this form.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LoginRequest is the input for user authentication.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks that the LoginRequest has all required fields.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// LoginResponse is returned after successful authentication.
type LoginResponse struct {
	AccessToken string    `json:"access_token"` //nolint:gosec // response field, not a hardcoded secret
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
	Privilege   Privilege `json:"privilege"`
}

// ChangePasswordRequest is the self-service password change input.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"` //nolint:gosec // request field, not a hardcoded secret
	NewPassword     string `json:"new_password"`     //nolint:gosec // request field, not a hardcoded secret
}

// Validate checks both fields and the new password length.
func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return errors.New("current_password is required")
	}
	if len(r.NewPassword) < 8 {
		return errors.New("new_password must be at least 8 characters")
	}
	return nil
}
