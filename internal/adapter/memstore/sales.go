package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

// --- Sales ---

func (s *Store) ListSales(ctx context.Context, f sale.ListFilter) ([]sale.Sale, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out []sale.Sale
	err = s.read(func(st *state) error {
		for _, sl := range st.sales {
			if sl.TenantID != tid {
				continue
			}
			if f.VehicleID != "" && sl.VehicleID != f.VehicleID {
				continue
			}
			if f.ClientID != "" && sl.ClientID != f.ClientID {
				continue
			}
			out = append(out, sl)
		}
		return nil
	})
	sortNewestFirst(out, func(sl *sale.Sale) time.Time { return sl.CreatedAt }, func(sl *sale.Sale) string { return sl.ID })
	return out, err
}

func (s *Store) GetSale(ctx context.Context, id string) (*sale.Sale, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out sale.Sale
	err = s.read(func(st *state) error {
		sl, ok := st.sales[id]
		if !ok || sl.TenantID != tid {
			return fmt.Errorf("get sale %s: %w", id, domain.ErrNotFound)
		}
		out = sl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateSale(ctx context.Context, req sale.CreateRequest) (*sale.Sale, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out sale.Sale
	err = s.tx(func(tx *txn) error {
		v, ok := tx.st.vehicles[req.VehicleID]
		if !ok || v.TenantID != tid {
			return fmt.Errorf("vehicle %s: %w", req.VehicleID, domain.ErrNotFound)
		}
		if v.Status != vehicle.StatusInStock {
			return domain.Conflict("vehicle is not available for sale")
		}
		if c, ok := tx.st.clients[req.ClientID]; !ok || c.TenantID != tid {
			return domain.Invalid("client_id does not reference a client of this dealership")
		}
		if err := tx.st.checkTradeIn(tid, req.TradeInVehicleID, req.VehicleID); err != nil {
			return err
		}

		if err := tx.step(StepSaleInsert); err != nil {
			return err
		}
		sl := sale.Sale{
			ID:               newID(),
			TenantID:         tid,
			ClientID:         req.ClientID,
			VehicleID:        req.VehicleID,
			SaleValue:        req.SaleValue,
			DownPayment:      req.DownPayment,
			Financed:         req.Financed(),
			PaymentMethod:    req.PaymentMethod,
			Seller:           req.Seller,
			OperationKind:    req.OperationKind,
			TradeInVehicleID: req.TradeInVehicleID,
			SoldAt:           req.SoldAt,
			CreatedAt:        tx.now,
		}
		tx.st.sales[sl.ID] = sl

		if err := tx.step(StepSaleMarkSold); err != nil {
			return err
		}
		if !tx.st.swapStatus(tid, req.VehicleID, vehicle.StatusInStock, vehicle.StatusSold, tx.now) {
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
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out sale.Sale
	err = s.tx(func(tx *txn) error {
		sl, ok := tx.st.sales[id]
		if !ok || sl.TenantID != tid {
			return fmt.Errorf("sale %s: %w", id, domain.ErrNotFound)
		}
		if err := tx.step(StepSaleDelete); err != nil {
			return err
		}
		delete(tx.st.sales, id)

		if err := tx.step(StepSaleRestoreStock); err != nil {
			return err
		}
		if !tx.st.swapStatus(tid, sl.VehicleID, vehicle.StatusSold, vehicle.StatusInStock, tx.now) {
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

// swapStatus moves the vehicle from one status to another only if it is
// currently in from. It reports whether the vehicle changed.
func (st *state) swapStatus(tenantID, vehicleID string, from, to vehicle.Status, now time.Time) bool {
	v, ok := st.vehicles[vehicleID]
	if !ok || v.TenantID != tenantID || v.Status != from {
		return false
	}
	v.Status = to
	v.UpdatedAt = now
	st.vehicles[vehicleID] = v
	return true
}
