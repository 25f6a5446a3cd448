package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/option"
)

// --- Clients ---

var clientColumns = []string{
	"id", "tenant_id", "name", "kind", "document", "rg", dateText("birth_date"),
	"email", "phone", "postal_code", "street", "number", "district", "city", "state",
	"created_at", "updated_at",
}

var clientReturning = strings.Join(clientColumns, ", ")

func scanClient(row scannable) (client.Client, error) {
	var c client.Client
	var kind string
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &kind, &c.Document, &c.RG, &c.BirthDate,
		&c.Email, &c.Phone, &c.PostalCode, &c.Street, &c.Number, &c.District, &c.City, &c.State,
		&c.CreatedAt, &c.UpdatedAt)
	c.Kind = client.Kind(kind)
	return c, err
}

func (s *Store) ListClients(ctx context.Context, f client.ListFilter) ([]client.Client, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	q := psql.Select(clientColumns...).From("clients").
		Where(sq.Eq{"tenant_id": tid}).
		OrderBy("created_at DESC", "id")
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where(sq.Or{
			sq.ILike{"name": likeContains(search)},
			sq.Like{"document": likeContains(search)},
		})
	}
	rows, err := queryBuilt(ctx, s.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out, err := collect(rows, scanClient)
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return out, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*client.Client, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("get client %s: %w", id, domain.ErrNotFound)
	}
	c, err := scanClient(s.pool.QueryRow(ctx,
		`SELECT `+clientReturning+` FROM clients WHERE id = $1 AND tenant_id = $2`, id, tid))
	if err != nil {
		return nil, notFoundWrap(err, "get client %s", id)
	}
	return &c, nil
}

func (s *Store) CreateClient(ctx context.Context, in client.Input) (*client.Client, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	c, err := scanClient(s.pool.QueryRow(ctx, `
		INSERT INTO clients (tenant_id, name, kind, document, rg, birth_date, email, phone,
			postal_code, street, number, district, city, state)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+clientReturning,
		tid, in.Name, string(in.Kind), in.Document, in.RG, in.BirthDate, in.Email, in.Phone,
		in.PostalCode, in.Street, in.Number, in.District, in.City, in.State))
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateClient(ctx context.Context, id string, in client.Input) (*client.Client, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("update client %s: %w", id, domain.ErrNotFound)
	}
	c, err := scanClient(s.pool.QueryRow(ctx, `
		UPDATE clients SET name = $3, kind = $4, document = $5, rg = $6,
			birth_date = NULLIF($7, '')::date, email = $8, phone = $9, postal_code = $10,
			street = $11, number = $12, district = $13, city = $14, state = $15, updated_at = now()
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+clientReturning,
		id, tid, in.Name, string(in.Kind), in.Document, in.RG, in.BirthDate, in.Email, in.Phone,
		in.PostalCode, in.Street, in.Number, in.District, in.City, in.State))
	if err != nil {
		return nil, notFoundWrap(err, "update client %s", id)
	}
	return &c, nil
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	tid, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("delete client %s: %w", id, domain.ErrNotFound)
	}
	return s.runTx(ctx, opClientDelete, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx,
			`SELECT id FROM clients WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tid).Scan(&locked); err != nil {
			return notFoundWrap(err, "delete client %s", id)
		}
		hasSales, err := rowExists(ctx, tx, `SELECT 1 FROM sales WHERE client_id = $1 LIMIT 1`, id)
		if err != nil {
			return fmt.Errorf("check client sales: %w", err)
		}
		if hasSales {
			return domain.Conflict("client has sales and cannot be deleted")
		}
		_, err = tx.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
		if isForeignKeyViolation(err) {
			return domain.Conflict("client has sales and cannot be deleted")
		}
		if err != nil {
			return fmt.Errorf("delete client %s: %w", id, err)
		}
		return nil
	})
}

// --- Options ---

const optionColumns = `id, tenant_id, name, created_at`

func scanOption(row scannable) (option.Option, error) {
	var o option.Option
	err := row.Scan(&o.ID, &o.TenantID, &o.Name, &o.CreatedAt)
	return o, err
}

func (s *Store) ListOptions(ctx context.Context) ([]option.Option, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+optionColumns+` FROM options WHERE tenant_id = $1 ORDER BY lower(name), id`, tid)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	out, err := collect(rows, scanOption)
	if err != nil {
		return nil, fmt.Errorf("scan option: %w", err)
	}
	return out, nil
}

func (s *Store) CreateOption(ctx context.Context, in option.Input) (*option.Option, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	o, err := scanOption(s.pool.QueryRow(ctx,
		`INSERT INTO options (tenant_id, name) VALUES ($1, $2) RETURNING `+optionColumns, tid, in.Name))
	if isUniqueViolation(err) {
		return nil, domain.Conflict("option %q already exists", in.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("create option: %w", err)
	}
	return &o, nil
}

func (s *Store) RenameOption(ctx context.Context, id string, in option.Input) (*option.Option, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("rename option %s: %w", id, domain.ErrNotFound)
	}
	o, err := scanOption(s.pool.QueryRow(ctx,
		`UPDATE options SET name = $3 WHERE id = $1 AND tenant_id = $2 RETURNING `+optionColumns, id, tid, in.Name))
	if isUniqueViolation(err) {
		return nil, domain.Conflict("option %q already exists", in.Name)
	}
	if err != nil {
		return nil, notFoundWrap(err, "rename option %s", id)
	}
	return &o, nil
}

// DeleteOption relies on ON DELETE CASCADE to drop the vehicle attachments
// in the same statement.
func (s *Store) DeleteOption(ctx context.Context, id string) error {
	tid, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("delete option %s: %w", id, domain.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM options WHERE id = $1 AND tenant_id = $2`, id, tid)
	return execExpectOne(tag, err, "delete option %s", id)
}
