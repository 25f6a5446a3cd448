package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

// --- Tenants ---

func (s *Store) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	var out tenant.Tenant
	err := s.read(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetTenantStatus(ctx context.Context, id string) (tenant.Status, error) {
	t, err := s.GetTenant(ctx, id)
	if err != nil {
		return "", err
	}
	return t.Status, nil
}

func (s *Store) ListTenantSummaries(_ context.Context) ([]tenant.Summary, error) {
	var out []tenant.Summary
	err := s.read(func(st *state) error {
		for _, t := range st.tenants {
			out = append(out, st.summary(t))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b tenant.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}

func (s *Store) GetTenantSummary(_ context.Context, id string) (*tenant.Summary, error) {
	var out tenant.Summary
	err := s.read(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
		}
		out = st.summary(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ProvisionTenant(_ context.Context, req tenant.CreateRequest, adminHash string) (*tenant.Summary, error) {
	var out tenant.Summary
	err := s.tx(func(tx *txn) error {
		if err := tx.step(StepTenantInsert); err != nil {
			return err
		}
		t := tenant.Tenant{ID: newID(), Name: req.Name, Status: tenant.StatusActive, CreatedAt: tx.now, UpdatedAt: tx.now}
		tx.st.tenants[t.ID] = t

		if err := tx.step(StepTenantInsertAdmin); err != nil {
			return err
		}
		admin := user.User{
			ID:           newID(),
			TenantID:     t.ID,
			Username:     user.NormalizeUsername(req.AdminUsername),
			PasswordHash: adminHash,
			Role:         user.RoleAdmin,
			CreatedAt:    tx.now,
			UpdatedAt:    tx.now,
		}
		if err := tx.st.insertUser(admin); err != nil {
			return err
		}
		out = tenant.Summary{Tenant: t, AdminUsername: admin.Username}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provision tenant: %w", err)
	}
	return &out, nil
}

func (s *Store) SetTenantStatus(_ context.Context, id string, status tenant.Status) (*tenant.Tenant, error) {
	return s.updateStatus(id, func(tenant.Status) tenant.Status { return status })
}

func (s *Store) ToggleTenantStatus(_ context.Context, id string) (*tenant.Tenant, error) {
	return s.updateStatus(id, tenant.Status.Toggled)
}

func (s *Store) updateStatus(id string, next func(tenant.Status) tenant.Status) (*tenant.Tenant, error) {
	var out tenant.Tenant
	err := s.tx(func(tx *txn) error {
		t, ok := tx.st.tenants[id]
		if !ok {
			return fmt.Errorf("update tenant status %s: %w", id, domain.ErrNotFound)
		}
		if err := tx.step(StepTenantUpdate); err != nil {
			return err
		}
		t.Status = next(t.Status)
		t.UpdatedAt = tx.now
		tx.st.tenants[id] = t
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateTenant(_ context.Context, id string, req tenant.UpdateRequest, defaultHash string) (*tenant.UpdateResult, error) {
	var out tenant.UpdateResult
	err := s.tx(func(tx *txn) error {
		t, ok := tx.st.tenants[id]
		if !ok {
			return fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
		}
		if err := tx.step(StepTenantUpdate); err != nil {
			return err
		}
		if req.Name != "" {
			t.Name = req.Name
			t.UpdatedAt = tx.now
			tx.st.tenants[id] = t
		}

		if req.AdminUsername != "" {
			if err := tx.step(StepTenantUpdateAdmin); err != nil {
				return err
			}
			username := user.NormalizeUsername(req.AdminUsername)
			if admin, ok := tx.st.tenantAdmin(id); ok {
				if admin.Username != username {
					if _, taken := tx.st.userByUsername(username); taken {
						return domain.Conflict("username already exists")
					}
					admin.Username = username
					admin.UpdatedAt = tx.now
					tx.st.users[admin.ID] = admin
				}
			} else {
				admin := user.User{
					ID:           newID(),
					TenantID:     id,
					Username:     username,
					PasswordHash: defaultHash,
					Role:         user.RoleAdmin,
					CreatedAt:    tx.now,
					UpdatedAt:    tx.now,
				}
				if err := tx.st.insertUser(admin); err != nil {
					return err
				}
				out.DefaultCredentialApplied = true
			}
		}
		out.Summary = tx.st.summary(t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) SetTenantAdminPassword(_ context.Context, tenantID, hash string) error {
	return s.tx(func(tx *txn) error {
		admin, ok := tx.st.tenantAdmin(tenantID)
		if !ok {
			return fmt.Errorf("tenant %s admin: %w", tenantID, domain.ErrNotFound)
		}
		admin.PasswordHash = hash
		admin.UpdatedAt = tx.now
		tx.st.users[admin.ID] = admin
		return nil
	})
}

// --- Users ---

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	return s.tx(func(tx *txn) error {
		if u.ID == "" {
			u.ID = newID()
		}
		u.Username = user.NormalizeUsername(u.Username)
		u.CreatedAt = tx.now
		u.UpdatedAt = tx.now
		if u.TenantID != "" {
			if _, ok := tx.st.tenants[u.TenantID]; !ok {
				return fmt.Errorf("create user: tenant %s: %w", u.TenantID, domain.ErrNotFound)
			}
		}
		return tx.st.insertUser(*u)
	})
}

func (s *Store) GetUser(_ context.Context, id string) (*user.User, error) {
	var out user.User
	err := s.read(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	var out user.User
	err := s.read(func(st *state) error {
		u, ok := st.userByUsername(user.NormalizeUsername(username))
		if !ok {
			return fmt.Errorf("get user by username: %w", domain.ErrNotFound)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	var out []user.User
	err := s.read(func(st *state) error {
		for _, u := range st.users {
			out = append(out, u)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b user.User) int { return cmp.Compare(a.Username, b.Username) })
	return out, err
}

func (s *Store) UpdatePassword(_ context.Context, userID, hash string) error {
	return s.tx(func(tx *txn) error {
		u, ok := tx.st.users[userID]
		if !ok {
			return fmt.Errorf("update password %s: %w", userID, domain.ErrNotFound)
		}
		u.PasswordHash = hash
		u.UpdatedAt = tx.now
		tx.st.users[userID] = u
		return nil
	})
}

func (st *state) insertUser(u user.User) error {
	if _, taken := st.userByUsername(u.Username); taken {
		return domain.Conflict("username already exists")
	}
	st.users[u.ID] = u
	return nil
}

func (st *state) userByUsername(username string) (user.User, bool) {
	for _, u := range st.users {
		if u.Username == username {
			return u, true
		}
	}
	return user.User{}, false
}

func (st *state) tenantAdmin(tenantID string) (user.User, bool) {
	for _, u := range st.users {
		if u.TenantID == tenantID && u.Role == user.RoleAdmin {
			return u, true
		}
	}
	return user.User{}, false
}

func (st *state) summary(t tenant.Tenant) tenant.Summary {
	sum := tenant.Summary{Tenant: t}
	if admin, ok := st.tenantAdmin(t.ID); ok {
		sum.AdminUsername = admin.Username
	}
	return sum
}
