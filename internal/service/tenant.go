package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// StatusListener is notified after a tenant status change has committed.
type StatusListener func(ctx context.Context, change tenant.StatusChange)

// TenantService is the super-admin control plane. Every method requires
// the caller to hold super-admin privilege.
type TenantService struct {
	store database.Store
	auth  *AuthService
	gate  *AccessGate

	defaultAdminPassword string

	mu        sync.RWMutex
	listeners []StatusListener
}

// NewTenantService creates a TenantService. gate may be nil.
func NewTenantService(store database.Store, authSvc *AuthService, gate *AccessGate, defaultAdminPassword string) *TenantService {
	return &TenantService{store: store, auth: authSvc, gate: gate, defaultAdminPassword: defaultAdminPassword}
}

// OnStatusChange registers fn to run after every status change.
func (s *TenantService) OnStatusChange(fn StatusListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func requireSuperAdmin(ctx context.Context) error {
	if !auth.FromContext(ctx).IsSuperAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// List returns every tenant with its admin username.
func (s *TenantService) List(ctx context.Context) ([]tenant.Summary, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.ListTenantSummaries(ctx)
}

// Get returns one tenant.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Summary, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	return s.store.GetTenantSummary(ctx, id)
}

// Provision creates a tenant and its admin user atomically.
func (s *TenantService) Provision(ctx context.Context, req *tenant.CreateRequest) (*tenant.Summary, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	hash, err := s.auth.HashPassword(ctx, req.AdminPassword)
	if err != nil {
		return nil, err
	}
	sum, err := s.store.ProvisionTenant(ctx, *req, hash)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "tenant provisioned", "id", sum.ID, "admin", sum.AdminUsername)
	return sum, nil
}

// SetStatus sets the status of a tenant.
func (s *TenantService) SetStatus(ctx context.Context, id string, status tenant.Status) (*tenant.Tenant, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Invalid("status must be active or blocked")
	}
	t, err := s.store.SetTenantStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, t)
	return t, nil
}

// ToggleStatus flips a tenant between active and blocked.
func (s *TenantService) ToggleStatus(ctx context.Context, id string) (*tenant.Tenant, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	t, err := s.store.ToggleTenantStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, t)
	return t, nil
}

// statusChanged runs before the change is acknowledged to the caller, so
// the local gate never serves the old status afterwards.
func (s *TenantService) statusChanged(ctx context.Context, t *tenant.Tenant) {
	if s.gate != nil {
		s.gate.InvalidateTenant(t.ID)
	}
	change := tenant.StatusChange{TenantID: t.ID, Status: t.Status}
	s.mu.RLock()
	listeners := append([]StatusListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, change)
	}
	slog.InfoContext(ctx, "tenant status changed", "id", t.ID, "status", t.Status)
}

// Update renames a tenant and/or its admin. A tenant without an admin gets
// one with the configured default password.
func (s *TenantService) Update(ctx context.Context, id string, req *tenant.UpdateRequest) (*tenant.UpdateResult, error) {
	if err := requireSuperAdmin(ctx); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	var defaultHash string
	if req.AdminUsername != "" {
		cur, err := s.store.GetTenantSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		if cur.AdminUsername == "" {
			if s.defaultAdminPassword == "" {
				return nil, domain.Invalid("tenant has no admin and no default admin password is configured")
			}
			if defaultHash, err = s.auth.HashPassword(ctx, s.defaultAdminPassword); err != nil {
				return nil, err
			}
		}
	}

	res, err := s.store.UpdateTenant(ctx, id, *req, defaultHash)
	if err != nil {
		return nil, err
	}
	if res.DefaultCredentialApplied {
		slog.WarnContext(ctx, "tenant admin created with default credential", "id", id, "admin", res.AdminUsername)
	}
	return res, nil
}

// ResetAdminPassword replaces the password of a tenant's admin.
func (s *TenantService) ResetAdminPassword(ctx context.Context, id string, req *tenant.ResetPasswordRequest) error {
	if err := requireSuperAdmin(ctx); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	hash, err := s.auth.HashPassword(ctx, req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.SetTenantAdminPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("reset admin password: %w", err)
	}
	slog.InfoContext(ctx, "tenant admin password reset", "id", id)
	return nil
}
