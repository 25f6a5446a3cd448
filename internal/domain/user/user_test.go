package user

import "testing"

func TestResolvePrivilege(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		tenantID string
		username string
		legacy   bool
		want     Privilege
	}{
		{name: "super admin role", role: RoleSuperAdmin, want: PrivilegeSuperAdmin},
		{name: "super admin role with tenant", role: RoleSuperAdmin, tenantID: "t1", want: PrivilegeSuperAdmin},
		{name: "tenant admin", role: RoleAdmin, tenantID: "t1", username: "joe", want: PrivilegeTenantAdmin},
		{name: "admin role without tenant", role: RoleAdmin, username: "joe", want: PrivilegeNone},
		{name: "legacy username disabled", username: "admin", want: PrivilegeNone},
		{name: "legacy username enabled", username: "admin", legacy: true, want: PrivilegeSuperAdmin},
		{name: "legacy username case folded", username: "Admin", legacy: true, want: PrivilegeSuperAdmin},
		{name: "legacy username bound to tenant", role: RoleAdmin, tenantID: "t1", username: "admin", legacy: true, want: PrivilegeTenantAdmin},
		{name: "no role", tenantID: "t1", username: "bob", want: PrivilegeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePrivilege(tt.role, tt.tenantID, tt.username, tt.legacy)
			if got != tt.want {
				t.Fatalf("ResolvePrivilege() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	if got := NormalizeUsername("  Loja.Admin "); got != "loja.admin" {
		t.Fatalf("NormalizeUsername() = %q", got)
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     LoginRequest
		wantErr string
	}{
		{name: "valid", req: LoginRequest{Username: "joe", Password: "secret"}},
		{name: "missing username", req: LoginRequest{Password: "secret"}, wantErr: "username is required"},
		{name: "blank username", req: LoginRequest{Username: "   ", Password: "secret"}, wantErr: "username is required"},
		{name: "missing password", req: LoginRequest{Username: "joe"}, wantErr: "password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestChangePasswordRequest_Validate(t *testing.T) {
	r := ChangePasswordRequest{CurrentPassword: "old", NewPassword: "short"}
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for short password")
	}
	r.NewPassword = "long-enough"
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.CurrentPassword = ""
	if err := r.Validate(); err == nil {
		t.Fatal("expected error for missing current password")
	}
}
