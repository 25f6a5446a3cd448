package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

var saleColumns = []string{
	"id", "tenant_id", "client_id", "vehicle_id", "sale_value", "down_payment", "financed",
	"payment_method", "seller", "operation_kind", "coalesce(trade_in_vehicle_id::text, '')",
	dateText("sold_at"), "created_at",
}

var saleReturning = strings.Join(saleColumns, ", ")

func scanSale(row scannable) (sale.Sale, error) {
	var sl sale.Sale
	var kind string
	err := row.Scan(&sl.ID, &sl.TenantID, &sl.ClientID, &sl.VehicleID, &sl.SaleValue,
		&sl.DownPayment, &sl.Financed, &sl.PaymentMethod, &sl.Seller, &kind,
		&sl.TradeInVehicleID, &sl.SoldAt, &sl.CreatedAt)
	sl.OperationKind = sale.OperationKind(kind)
	return sl, err
}

func (s *Store) ListSales(ctx context.Context, f sale.ListFilter) ([]sale.Sale, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	q := psql.Select(saleColumns...).From("sales").
		Where(sq.Eq{"tenant_id": tid}).
		OrderBy("created_at DESC", "id")
	for col, id := range map[string]string{"vehicle_id": f.VehicleID, "client_id": f.ClientID} {
		if id == "" {
			continue
		}
		if !validID(id) {
			return nil, nil
		}
		q = q.Where(sq.Eq{col: id})
	}
	rows, err := queryBuilt(ctx, s.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	out, err := collect(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("scan sale: %w", err)
	}
	return out, nil
}

func (s *Store) GetSale(ctx context.Context, id string) (*sale.Sale, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("get sale %s: %w", id, domain.ErrNotFound)
	}
	sl, err := scanSale(s.pool.QueryRow(ctx,
		`SELECT `+saleReturning+` FROM sales WHERE id = $1 AND tenant_id = $2`, id, tid))
	if err != nil {
		return nil, notFoundWrap(err, "get sale %s", id)
	}
	return &sl, nil
}

// CreateSale locks the vehicle row before checking its status, so two
// concurrent sales of one vehicle serialize and the second sees sold. The
// compare-and-set update and the unique sales index back that up.
func (s *Store) CreateSale(ctx context.Context, req sale.CreateRequest) (*sale.Sale, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(req.VehicleID) {
		return nil, fmt.Errorf("create sale: vehicle %s: %w", req.VehicleID, domain.ErrNotFound)
	}
	var out sale.Sale
	err = s.runTx(ctx, opSaleCreate, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx,
			`SELECT status FROM vehicles WHERE id = $1 AND tenant_id = $2 FOR UPDATE`,
			req.VehicleID, tid).Scan(&status); err != nil {
			return notFoundWrap(err, "vehicle %s", req.VehicleID)
		}
		if vehicle.Status(status) != vehicle.StatusInStock {
			return domain.Conflict("vehicle is not available for sale")
		}

		clientOK := validID(req.ClientID)
		if clientOK {
			var err error
			clientOK, err = rowExists(ctx, tx,
				`SELECT 1 FROM clients WHERE id = $1 AND tenant_id = $2`, req.ClientID, tid)
			if err != nil {
				return fmt.Errorf("check client: %w", err)
			}
		}
		if !clientOK {
			return domain.Invalid("client_id does not reference a client of this dealership")
		}
		if err := checkTradeIn(ctx, tx, tid, req.TradeInVehicleID, req.VehicleID); err != nil {
			return err
		}

		sl, err := scanSale(tx.QueryRow(ctx, `
			INSERT INTO sales (tenant_id, client_id, vehicle_id, sale_value, down_payment, financed,
				payment_method, seller, operation_kind, trade_in_vehicle_id, sold_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::date)
			RETURNING `+saleReturning,
			tid, req.ClientID, req.VehicleID, req.SaleValue, req.DownPayment, req.Financed(),
			req.PaymentMethod, req.Seller, string(req.OperationKind),
			nullIfEmpty(req.TradeInVehicleID), req.SoldAt))
		if isUniqueViolation(err) {
			return domain.Conflict("vehicle is not available for sale")
		}
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE vehicles SET status = $3, updated_at = now()
			WHERE id = $1 AND tenant_id = $2 AND status = $4`,
			req.VehicleID, tid, string(vehicle.StatusSold), string(vehicle.StatusInStock))
		if err != nil {
			return fmt.Errorf("mark vehicle sold: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return domain.Conflict("vehicle is not available for sale")
		}
		out = sl
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	return &out, nil
}

func (s *Store) CancelSale(ctx context.Context, id string) (*sale.Sale, error) {
	tid, err := tenantScope(ctx)
	if err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("cancel sale: sale %s: %w", id, domain.ErrNotFound)
	}
	var out sale.Sale
	err = s.runTx(ctx, opSaleCancel, func(tx pgx.Tx) error {
		sl, err := scanSale(tx.QueryRow(ctx,
			`SELECT `+saleReturning+` FROM sales WHERE id = $1 AND tenant_id = $2 FOR UPDATE`, id, tid))
		if err != nil {
			return notFoundWrap(err, "sale %s", id)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sales WHERE id = $1 AND tenant_id = $2`, id, tid); err != nil {
			return fmt.Errorf("delete sale: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE vehicles SET status = $3, updated_at = now()
			WHERE id = $1 AND tenant_id = $2 AND status = $4`,
			sl.VehicleID, tid, string(vehicle.StatusInStock), string(vehicle.StatusSold))
		if err != nil {
			return fmt.Errorf("restore vehicle stock: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return domain.Conflict("vehicle of this sale is not marked as sold")
		}
		out = sl
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel sale: %w", err)
	}
	return &out, nil
}
