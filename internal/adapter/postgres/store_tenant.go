package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

const tenantColumns = `id, name, status, created_at, updated_at`

const summarySelect = `
	SELECT t.id, t.name, t.status, t.created_at, t.updated_at, coalesce(u.username, '')
	FROM tenants t
	LEFT JOIN users u ON u.tenant_id = t.id AND u.role = 'admin'`

func scanTenant(row scannable) (tenant.Tenant, error) {
	var t tenant.Tenant
	var status string
	err := row.Scan(&t.ID, &t.Name, &status, &t.CreatedAt, &t.UpdatedAt)
	t.Status = tenant.Status(status)
	return t, err
}

func scanSummary(row scannable) (tenant.Summary, error) {
	var s tenant.Summary
	var status string
	err := row.Scan(&s.ID, &s.Name, &status, &s.CreatedAt, &s.UpdatedAt, &s.AdminUsername)
	s.Status = tenant.Status(status)
	return s, err
}

func (s *Store) GetTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
	}
	t, err := scanTenant(s.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &t, nil
}

func (s *Store) GetTenantStatus(ctx context.Context, id string) (tenant.Status, error) {
	if !validID(id) {
		return "", fmt.Errorf("get tenant status %s: %w", id, domain.ErrNotFound)
	}
	var status string
	if err := s.pool.QueryRow(ctx, `SELECT status FROM tenants WHERE id = $1`, id).Scan(&status); err != nil {
		return "", notFoundWrap(err, "get tenant status %s", id)
	}
	return tenant.Status(status), nil
}

func (s *Store) ListTenantSummaries(ctx context.Context) ([]tenant.Summary, error) {
	rows, err := s.pool.Query(ctx, summarySelect+` ORDER BY t.created_at, t.id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	out, err := collect(rows, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return out, nil
}

func (s *Store) GetTenantSummary(ctx context.Context, id string) (*tenant.Summary, error) {
	if !validID(id) {
		return nil, fmt.Errorf("get tenant %s: %w", id, domain.ErrNotFound)
	}
	return getSummary(ctx, s.pool, id)
}

func getSummary(ctx context.Context, q querier, id string) (*tenant.Summary, error) {
	sum, err := scanSummary(q.QueryRow(ctx, summarySelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return &sum, nil
}

func (s *Store) ProvisionTenant(ctx context.Context, req tenant.CreateRequest, adminHash string) (*tenant.Summary, error) {
	var out tenant.Summary
	err := s.runTx(ctx, opTenantProvision, func(tx pgx.Tx) error {
		t, err := scanTenant(tx.QueryRow(ctx, `
			INSERT INTO tenants (name, status) VALUES ($1, $2)
			RETURNING `+tenantColumns, req.Name, string(tenant.StatusActive)))
		if err != nil {
			return fmt.Errorf("insert tenant: %w", err)
		}

		username := user.NormalizeUsername(req.AdminUsername)
		if err := insertAdmin(ctx, tx, t.ID, username, adminHash); err != nil {
			return err
		}
		out = tenant.Summary{Tenant: t, AdminUsername: username}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provision tenant: %w", err)
	}
	return &out, nil
}

func insertAdmin(ctx context.Context, q querier, tenantID, username, hash string) error {
	_, err := q.Exec(ctx, `
		INSERT INTO users (tenant_id, username, password_hash, role)
		VALUES ($1, $2, $3, $4)`, tenantID, username, hash, string(user.RoleAdmin))
	if isUniqueViolation(err) {
		return domain.Conflict("username already exists")
	}
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (s *Store) SetTenantStatus(ctx context.Context, id string, status tenant.Status) (*tenant.Tenant, error) {
	return s.updateStatus(ctx, id, `$2`, string(status))
}

func (s *Store) ToggleTenantStatus(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.updateStatus(ctx, id, `CASE status WHEN 'blocked' THEN 'active' ELSE 'blocked' END`)
}

// updateStatus flips the status in one statement so concurrent toggles
// serialize on the row lock.
func (s *Store) updateStatus(ctx context.Context, id, expr string, args ...any) (*tenant.Tenant, error) {
	if !validID(id) {
		return nil, fmt.Errorf("update tenant status %s: %w", id, domain.ErrNotFound)
	}
	var out tenant.Tenant
	err := s.runTx(ctx, opTenantStatus, func(tx pgx.Tx) error {
		t, err := scanTenant(tx.QueryRow(ctx, `
			UPDATE tenants SET status = `+expr+`, updated_at = now()
			WHERE id = $1
			RETURNING `+tenantColumns, append([]any{id}, args...)...))
		if err != nil {
			return notFoundWrap(err, "update tenant status %s", id)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) UpdateTenant(ctx context.Context, id string, req tenant.UpdateRequest, defaultHash string) (*tenant.UpdateResult, error) {
	if !validID(id) {
		return nil, fmt.Errorf("update tenant %s: %w", id, domain.ErrNotFound)
	}
	var out tenant.UpdateResult
	err := s.runTx(ctx, opTenantUpdate, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM tenants WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			return notFoundWrap(err, "update tenant %s", id)
		}
		if req.Name != "" {
			if _, err := tx.Exec(ctx, `UPDATE tenants SET name = $2, updated_at = now() WHERE id = $1`, id, req.Name); err != nil {
				return fmt.Errorf("rename tenant: %w", err)
			}
		}

		if req.AdminUsername != "" {
			username := user.NormalizeUsername(req.AdminUsername)
			var adminID, current string
			err := tx.QueryRow(ctx, `
				SELECT id, username FROM users
				WHERE tenant_id = $1 AND role = 'admin'
				FOR UPDATE`, id).Scan(&adminID, &current)
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				if err := insertAdmin(ctx, tx, id, username, defaultHash); err != nil {
					return err
				}
				out.DefaultCredentialApplied = true
			case err != nil:
				return fmt.Errorf("lock admin: %w", err)
			case current != username:
				_, err := tx.Exec(ctx, `UPDATE users SET username = $2, updated_at = now() WHERE id = $1`, adminID, username)
				if isUniqueViolation(err) {
					return domain.Conflict("username already exists")
				}
				if err != nil {
					return fmt.Errorf("rename admin: %w", err)
				}
			}
		}

		sum, err := getSummary(ctx, tx, id)
		if err != nil {
			return err
		}
		out.Summary = *sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) SetTenantAdminPassword(ctx context.Context, tenantID, hash string) error {
	if !validID(tenantID) {
		return fmt.Errorf("tenant %s admin: %w", tenantID, domain.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE tenant_id = $1 AND role = 'admin'`, tenantID, hash)
	return execExpectOne(tag, err, "tenant %s admin", tenantID)
}
