package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/document"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
)

// --- Entries ---

var entryColumns = []string{
	"id", "tenant_id", "coalesce(vehicle_id::text, '')", "description", "amount", "kind",
	dateText("date"), "created_at",
}

var entryReturning = strings.Join(entryColumns, ", ")

func scanEntry(row scannable) (entry.Entry, error) {
	var e entry.Entry
	var kind string
	err := row.Scan(&e.ID, &e.TenantID, &e.VehicleID, &e.Description, &e.Amount, &kind, &e.Date, &e.CreatedAt)
	e.Kind = entry.Kind(kind)
	return e, err
}

func (s *Store) ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	q := psql.Select(entryColumns...).From("entries").
		Where(sq.Eq{"tenant_id": tid}).
		OrderBy("created_at DESC", "id")
	if f.VehicleID != "" {
		if !validID(f.VehicleID) {
			return nil, nil
		}
		q = q.Where(sq.Eq{"vehicle_id": f.VehicleID})
	}
	if f.Kind != "" {
		q = q.Where(sq.Eq{"kind": string(f.Kind)})
	}
	if f.From != "" {
		q = q.Where(sq.Expr("date >= ?::date", f.From))
	}
	if f.To != "" {
		q = q.Where(sq.Expr("date <= ?::date", f.To))
	}

	rows, err := queryBuilt(ctx, s.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out, err := collect(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return out, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*entry.Entry, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("get entry %s: %w", id, domain.ErrNotFound)
	}
	row := s.pool.QueryRow(ctx, `SELECT `+entryReturning+` FROM entries WHERE id = $1 AND tenant_id = $2`, id, tid)
	e, err := scanEntry(row)
	if err != nil {
		return nil, notFoundWrap(err, "get entry %s", id)
	}
	return &e, nil
}

func (s *Store) CreateEntry(ctx context.Context, in entry.Input) (*entry.Entry, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkEntryVehicle(ctx, tid, in.VehicleID); err != nil {
		return nil, err
	}
	e, err := scanEntry(s.pool.QueryRow(ctx, `
		INSERT INTO entries (tenant_id, vehicle_id, description, amount, kind, date)
		VALUES ($1, $2, $3, $4, $5, $6::date)
		RETURNING `+entryReturning,
		tid, nullIfEmpty(in.VehicleID), in.Description, in.Amount, string(in.Kind), in.Date))
	if isForeignKeyViolation(err) {
		return nil, domain.Invalid("vehicle_id does not reference a vehicle of this dealership")
	}
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return &e, nil
}

func (s *Store) UpdateEntry(ctx context.Context, id string, in entry.Input) (*entry.Entry, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("update entry %s: %w", id, domain.ErrNotFound)
	}
	exists, err := rowExists(ctx, s.pool, `SELECT 1 FROM entries WHERE id = $1 AND tenant_id = $2`, id, tid)
	if err != nil {
		return nil, fmt.Errorf("update entry %s: %w", id, err)
	}
	if !exists {
		return nil, fmt.Errorf("update entry %s: %w", id, domain.ErrNotFound)
	}
	if err := s.checkEntryVehicle(ctx, tid, in.VehicleID); err != nil {
		return nil, err
	}
	e, err := scanEntry(s.pool.QueryRow(ctx, `
		UPDATE entries SET vehicle_id = $3, description = $4, amount = $5, kind = $6, date = $7::date
		WHERE id = $1 AND tenant_id = $2
		RETURNING `+entryReturning,
		id, tid, nullIfEmpty(in.VehicleID), in.Description, in.Amount, string(in.Kind), in.Date))
	if isForeignKeyViolation(err) {
		return nil, domain.Invalid("vehicle_id does not reference a vehicle of this dealership")
	}
	if err != nil {
		return nil, notFoundWrap(err, "update entry %s", id)
	}
	return &e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	tid, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("delete entry %s: %w", id, domain.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1 AND tenant_id = $2`, id, tid)
	return execExpectOne(tag, err, "delete entry %s", id)
}

func (s *Store) checkEntryVehicle(ctx context.Context, tid, vehicleID string) error {
	if vehicleID == "" {
		return nil
	}
	ok := validID(vehicleID)
	if ok {
		var err error
		ok, err = rowExists(ctx, s.pool, `SELECT 1 FROM vehicles WHERE id = $1 AND tenant_id = $2`, vehicleID, tid)
		if err != nil {
			return fmt.Errorf("check entry vehicle: %w", err)
		}
	}
	if !ok {
		return domain.Invalid("vehicle_id does not reference a vehicle of this dealership")
	}
	return nil
}

// --- Documents ---

const documentColumns = `id, tenant_id, vehicle_id, title, kind, payload, created_at`

func scanDocument(row scannable) (document.Document, error) {
	var d document.Document
	err := row.Scan(&d.ID, &d.TenantID, &d.VehicleID, &d.Title, &d.Kind, &d.Payload, &d.CreatedAt)
	return d, err
}

func (s *Store) ListDocuments(ctx context.Context, vehicleID string) ([]document.Document, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireVehicle(ctx, tid, vehicleID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, vehicle_id, title, kind, '', created_at
		FROM documents WHERE tenant_id = $1 AND vehicle_id = $2
		ORDER BY created_at DESC, id`, tid, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out, err := collect(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("get document %s: %w", id, domain.ErrNotFound)
	}
	d, err := scanDocument(s.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND tenant_id = $2`, id, tid))
	if err != nil {
		return nil, notFoundWrap(err, "get document %s", id)
	}
	return &d, nil
}

func (s *Store) CreateDocument(ctx context.Context, req document.CreateRequest) (*document.Document, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireVehicle(ctx, tid, req.VehicleID); err != nil {
		return nil, err
	}
	d, err := scanDocument(s.pool.QueryRow(ctx, `
		INSERT INTO documents (tenant_id, vehicle_id, title, kind, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+documentColumns, tid, req.VehicleID, req.Title, req.Kind, req.Payload))
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("vehicle %s: %w", req.VehicleID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &d, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tid, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND tenant_id = $2`, id, tid)
	return execExpectOne(tag, err, "delete document %s", id)
}

// requireVehicle fails with ErrNotFound unless the tenant owns vehicleID.
func (s *Store) requireVehicle(ctx context.Context, tid, vehicleID string) error {
	ok := validID(vehicleID)
	if ok {
		var err error
		ok, err = rowExists(ctx, s.pool, `SELECT 1 FROM vehicles WHERE id = $1 AND tenant_id = $2`, vehicleID, tid)
		if err != nil {
			return fmt.Errorf("check vehicle: %w", err)
		}
	}
	if !ok {
		return fmt.Errorf("vehicle %s: %w", vehicleID, domain.ErrNotFound)
	}
	return nil
}

// --- Settings ---

const settingsColumns = `tenant_id, display_name, tax_id, phone, email, address, city, state, updated_at`

func scanSettings(row scannable) (settings.Dealership, error) {
	var d settings.Dealership
	err := row.Scan(&d.TenantID, &d.DisplayName, &d.TaxID, &d.Phone, &d.Email, &d.Address, &d.City, &d.State, &d.UpdatedAt)
	return d, err
}

func (s *Store) GetSettings(ctx context.Context) (*settings.Dealership, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	d, err := scanSettings(s.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM dealership_settings WHERE tenant_id = $1`, tid))
	if errors.Is(err, pgx.ErrNoRows) {
		return &settings.Dealership{TenantID: tid}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &d, nil
}

func (s *Store) UpsertSettings(ctx context.Context, req settings.UpdateRequest) (*settings.Dealership, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	d, err := scanSettings(s.pool.QueryRow(ctx, `
		INSERT INTO dealership_settings (tenant_id, display_name, tax_id, phone, email, address, city, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			display_name = EXCLUDED.display_name, tax_id = EXCLUDED.tax_id, phone = EXCLUDED.phone,
			email = EXCLUDED.email, address = EXCLUDED.address, city = EXCLUDED.city,
			state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
		RETURNING `+settingsColumns,
		tid, req.DisplayName, req.TaxID, req.Phone, req.Email, req.Address, req.City, req.State))
	if err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return &d, nil
}
