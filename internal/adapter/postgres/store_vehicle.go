package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

var vehicleColumns = []string{
	"id", "tenant_id", "model", "plate", "year", "color", "fuel", "sale_price", "cost_price",
	dateText("entry_date"), "operation", "previous_owner", "seller", "renavam", "chassis", "notes",
	"status", "coalesce(trade_in_vehicle_id::text, '')", "created_at", "updated_at",
}

var vehicleReturning = strings.Join(vehicleColumns, ", ")

func scanVehicle(row scannable) (vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	var status string
	err := row.Scan(&v.ID, &v.TenantID, &v.Model, &v.Plate, &v.Year, &v.Color, &v.Fuel,
		&v.SalePrice, &v.CostPrice, &v.EntryDate, &v.Operation, &v.PreviousOwner, &v.Seller,
		&v.Renavam, &v.Chassis, &v.Notes, &status, &v.TradeInVehicleID, &v.CreatedAt, &v.UpdatedAt)
	v.Status = vehicle.Status(status)
	v.OptionIDs = []string{}
	return v, err
}

func (s *Store) ListVehicles(ctx context.Context, f vehicle.ListFilter) ([]vehicle.Vehicle, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	q := psql.Select(vehicleColumns...).From("vehicles").
		Where(sq.Eq{"tenant_id": tid}).
		OrderBy("created_at DESC", "id")
	if f.Status != "" {
		q = q.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.YearMin > 0 {
		q = q.Where(sq.GtOrEq{"year": f.YearMin})
	}
	if f.YearMax > 0 {
		q = q.Where(sq.LtOrEq{"year": f.YearMax})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where(sq.Or{
			sq.ILike{"model": likeContains(search)},
			sq.ILike{"plate": likeContains(search)},
		})
	}

	rows, err := queryBuilt(ctx, s.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	out, err := collect(rows, scanVehicle)
	if err != nil {
		return nil, fmt.Errorf("scan vehicle: %w", err)
	}
	if err := attachOptions(ctx, s.pool, tid, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetVehicle(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("get vehicle %s: %w", id, domain.ErrNotFound)
	}
	return getVehicle(ctx, s.pool, tid, id, "get vehicle")
}

func getVehicle(ctx context.Context, q querier, tid, id, op string) (*vehicle.Vehicle, error) {
	v, err := scanVehicle(q.QueryRow(ctx,
		`SELECT `+vehicleReturning+` FROM vehicles WHERE id = $1 AND tenant_id = $2`, id, tid))
	if err != nil {
		return nil, notFoundWrap(err, "%s %s", op, id)
	}
	one := []vehicle.Vehicle{v}
	if err := attachOptions(ctx, q, tid, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// attachOptions loads the option ids of every vehicle in one query, in the
// order they were attached.
func attachOptions(ctx context.Context, q querier, tid string, vs []vehicle.Vehicle) error {
	if len(vs) == 0 {
		return nil
	}
	ids := make([]string, len(vs))
	index := make(map[string]int, len(vs))
	for i := range vs {
		ids[i] = vs[i].ID
		index[vs[i].ID] = i
	}
	rows, err := q.Query(ctx, `
		SELECT vehicle_id, option_id FROM vehicle_options
		WHERE tenant_id = $1 AND vehicle_id = ANY($2::uuid[])
		ORDER BY vehicle_id, position`, tid, ids)
	if err != nil {
		return fmt.Errorf("load vehicle options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vid, oid string
		if err := rows.Scan(&vid, &oid); err != nil {
			return fmt.Errorf("scan vehicle option: %w", err)
		}
		if i, ok := index[vid]; ok {
			vs[i].OptionIDs = append(vs[i].OptionIDs, oid)
		}
	}
	return rows.Err()
}

func (s *Store) CreateVehicle(ctx context.Context, in vehicle.Input) (*vehicle.Vehicle, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	var out *vehicle.Vehicle
	err = s.runTx(ctx, opVehicleCreate, func(tx pgx.Tx) error {
		if err := checkTradeIn(ctx, tx, tid, in.TradeInVehicleID, ""); err != nil {
			return err
		}
		status, err := vehicle.CheckTransition(vehicle.StatusInStock, in.Status)
		if err != nil {
			return domain.Invalid("%s", err.Error())
		}

		var id string
		err = tx.QueryRow(ctx, `
			INSERT INTO vehicles (tenant_id, model, plate, year, color, fuel, sale_price, cost_price,
				entry_date, operation, previous_owner, seller, renavam, chassis, notes, status,
				trade_in_vehicle_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10, $11, $12, $13, $14,
				$15, $16, $17)
			RETURNING id`,
			tid, in.Model, in.Plate, in.Year, in.Color, in.Fuel, in.SalePrice, in.CostPrice,
			in.EntryDate, in.Operation, in.PreviousOwner, in.Seller, in.Renavam, in.Chassis, in.Notes,
			string(status), nullIfEmpty(in.TradeInVehicleID)).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert vehicle: %w", err)
		}

		if err := linkOptions(ctx, tx, tid, id, in.OptionIDs); err != nil {
			return err
		}
		out, err = getVehicle(ctx, tx, tid, id, "reload vehicle")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id string, in vehicle.Input) (*vehicle.Vehicle, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("update vehicle: vehicle %s: %w", id, domain.ErrNotFound)
	}
	var out *vehicle.Vehicle
	err = s.runTx(ctx, opVehicleUpdate, func(tx pgx.Tx) error {
		var current string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM vehicles WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tid).Scan(&current); err != nil {
			return notFoundWrap(err, "vehicle %s", id)
		}
		status, err := vehicle.CheckTransition(vehicle.Status(current), in.Status)
		if err != nil {
			if in.Status == vehicle.StatusSold {
				return domain.Invalid("%s", err.Error())
			}
			return domain.Conflict("%s", err.Error())
		}
		if err := checkTradeIn(ctx, tx, tid, in.TradeInVehicleID, id); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE vehicles SET model = $3, plate = $4, year = $5, color = $6, fuel = $7,
				sale_price = $8, cost_price = $9, entry_date = NULLIF($10, '')::date, operation = $11,
				previous_owner = $12, seller = $13, renavam = $14, chassis = $15, notes = $16,
				status = $17, trade_in_vehicle_id = $18, updated_at = now()
			WHERE id = $1 AND tenant_id = $2`,
			id, tid, in.Model, in.Plate, in.Year, in.Color, in.Fuel, in.SalePrice, in.CostPrice,
			in.EntryDate, in.Operation, in.PreviousOwner, in.Seller, in.Renavam, in.Chassis, in.Notes,
			string(status), nullIfEmpty(in.TradeInVehicleID))
		if err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM vehicle_options WHERE vehicle_id = $1 AND tenant_id = $2`, id, tid); err != nil {
			return fmt.Errorf("unlink options: %w", err)
		}
		if err := linkOptions(ctx, tx, tid, id, in.OptionIDs); err != nil {
			return err
		}
		out, err = getVehicle(ctx, tx, tid, id, "reload vehicle")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	tid, err := tenantScope(ctx)
	if err != nil {
		return err
	}
	if !validID(id) {
		return fmt.Errorf("delete vehicle: vehicle %s: %w", id, domain.ErrNotFound)
	}
	err = s.runTx(ctx, opVehicleDelete, func(tx pgx.Tx) error {
		var locked string
		if err := tx.QueryRow(ctx,
			`SELECT id FROM vehicles WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tid).Scan(&locked); err != nil {
			return notFoundWrap(err, "vehicle %s", id)
		}

		// Attachments and trade-in references are handled by the schema
		// (CASCADE and SET NULL); rows that block the delete go first.
		for _, stmt := range []string{
			`DELETE FROM entries WHERE vehicle_id = $1 AND tenant_id = $2`,
			`DELETE FROM documents WHERE vehicle_id = $1 AND tenant_id = $2`,
			`DELETE FROM sales WHERE vehicle_id = $1 AND tenant_id = $2`,
		} {
			if _, err := tx.Exec(ctx, stmt, id, tid); err != nil {
				return fmt.Errorf("delete vehicle dependents: %w", err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE id = $1 AND tenant_id = $2`, id, tid)
		return execExpectOne(tag, err, "vehicle %s", id)
	})
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

// linkOptions attaches optionIDs in order after checking that every one
// belongs to the tenant.
func linkOptions(ctx context.Context, tx pgx.Tx, tid, vehicleID string, optionIDs []string) error {
	if len(optionIDs) == 0 {
		return nil
	}
	for _, oid := range optionIDs {
		if !validID(oid) {
			return domain.Invalid("unknown option %s", oid)
		}
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM options WHERE tenant_id = $1 AND id = ANY($2::uuid[])`, tid, optionIDs)
	if err != nil {
		return fmt.Errorf("check options: %w", err)
	}
	found, err := collect(rows, func(r scannable) (string, error) {
		var id string
		err := r.Scan(&id)
		return id, err
	})
	if err != nil {
		return fmt.Errorf("scan option id: %w", err)
	}
	known := make(map[string]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, oid := range optionIDs {
		if _, ok := known[strings.ToLower(oid)]; !ok {
			return domain.Invalid("unknown option %s", oid)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vehicle_options (vehicle_id, option_id, tenant_id, position)
		SELECT $1, o.id, $2, o.ord
		FROM unnest($3::uuid[]) WITH ORDINALITY AS o(id, ord)`, vehicleID, tid, optionIDs)
	if err != nil {
		return fmt.Errorf("link options: %w", err)
	}
	return nil
}

func checkTradeIn(ctx context.Context, q querier, tid, tradeInID, selfID string) error {
	if tradeInID == "" {
		return nil
	}
	if tradeInID == selfID {
		return domain.Invalid("a vehicle cannot be its own trade-in")
	}
	ok := validID(tradeInID)
	if ok {
		var err error
		ok, err = rowExists(ctx, q, `SELECT 1 FROM vehicles WHERE id = $1 AND tenant_id = $2`, tradeInID, tid)
		if err != nil {
			return fmt.Errorf("check trade-in: %w", err)
		}
	}
	if !ok {
		return domain.Invalid("trade_in_vehicle_id does not reference a vehicle of this dealership")
	}
	return nil
}
