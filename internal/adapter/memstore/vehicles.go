package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

// --- Vehicles ---

func (s *Store) ListVehicles(ctx context.Context, f vehicle.ListFilter) ([]vehicle.Vehicle, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []vehicle.Vehicle
	err = s.read(func(st *state) error {
		for _, v := range st.vehicles {
			if v.TenantID != tid {
				continue
			}
			if f.Status != "" && v.Status != f.Status {
				continue
			}
			if f.YearMin > 0 && v.Year < f.YearMin {
				continue
			}
			if f.YearMax > 0 && v.Year > f.YearMax {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(v.Model), search) && !strings.Contains(strings.ToLower(v.Plate), search) {
				continue
			}
			out = append(out, st.withOptions(v))
		}
		return nil
	})
	sortNewestFirst(out, func(v *vehicle.Vehicle) time.Time { return v.CreatedAt }, func(v *vehicle.Vehicle) string { return v.ID })
	return out, err
}

func (s *Store) GetVehicle(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out vehicle.Vehicle
	err = s.read(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok || v.TenantID != tid {
			return fmt.Errorf("get vehicle %s: %w", id, domain.ErrNotFound)
		}
		out = st.withOptions(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CreateVehicle(ctx context.Context, in vehicle.Input) (*vehicle.Vehicle, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out vehicle.Vehicle
	err = s.tx(func(tx *txn) error {
		if err := tx.st.checkTradeIn(tid, in.TradeInVehicleID, ""); err != nil {
			return err
		}
		status, err := vehicle.CheckTransition(vehicle.StatusInStock, in.Status)
		if err != nil {
			return domain.Invalid("%s", err.Error())
		}
		if err := tx.step(StepVehicleInsert); err != nil {
			return err
		}
		v := vehicleFromInput(in)
		v.ID = newID()
		v.TenantID = tid
		v.Status = status
		v.CreatedAt = tx.now
		v.UpdatedAt = tx.now
		tx.st.vehicles[v.ID] = v

		if err := tx.linkOptions(tid, v.ID, in.OptionIDs); err != nil {
			return err
		}
		out = tx.st.withOptions(v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return &out, nil
}

func (s *Store) UpdateVehicle(ctx context.Context, id string, in vehicle.Input) (*vehicle.Vehicle, error) {
	tid, err := scope(ctx)
	if err != nil {
		return nil, err
	}
	var out vehicle.Vehicle
	err = s.tx(func(tx *txn) error {
		old, ok := tx.st.vehicles[id]
		if !ok || old.TenantID != tid {
			return fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
		}
		status, err := vehicle.CheckTransition(old.Status, in.Status)
		if err != nil {
			if in.Status == vehicle.StatusSold {
				return domain.Invalid("%s", err.Error())
			}
			return domain.Conflict("%s", err.Error())
		}
		if err := tx.st.checkTradeIn(tid, in.TradeInVehicleID, id); err != nil {
			return err
		}

		if err := tx.step(StepVehicleUpdate); err != nil {
			return err
		}
		v := vehicleFromInput(in)
		v.ID = id
		v.TenantID = tid
		v.Status = status
		v.CreatedAt = old.CreatedAt
		v.UpdatedAt = tx.now
		tx.st.vehicles[id] = v

		if err := tx.step(StepVehicleUnlinkAll); err != nil {
			return err
		}
		delete(tx.st.links, id)
		if err := tx.linkOptions(tid, id, in.OptionIDs); err != nil {
			return err
		}
		out = tx.st.withOptions(v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return &out, nil
}

func (s *Store) DeleteVehicle(ctx context.Context, id string) error {
	tid, err := scope(ctx)
	if err != nil {
		return err
	}
	err = s.tx(func(tx *txn) error {
		v, ok := tx.st.vehicles[id]
		if !ok || v.TenantID != tid {
			return fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
		}

		if err := tx.step(StepVehicleDependents); err != nil {
			return err
		}
		delete(tx.st.links, id)
		for eid, e := range tx.st.entries {
			if e.VehicleID == id {
				delete(tx.st.entries, eid)
			}
		}
		for did, d := range tx.st.documents {
			if d.VehicleID == id {
				delete(tx.st.documents, did)
			}
		}
		for sid, sl := range tx.st.sales {
			if sl.VehicleID == id {
				delete(tx.st.sales, sid)
				continue
			}
			if sl.TradeInVehicleID == id {
				sl.TradeInVehicleID = ""
				tx.st.sales[sid] = sl
			}
		}
		for oid, other := range tx.st.vehicles {
			if other.TradeInVehicleID == id {
				other.TradeInVehicleID = ""
				tx.st.vehicles[oid] = other
			}
		}

		if err := tx.step(StepVehicleDelete); err != nil {
			return err
		}
		delete(tx.st.vehicles, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

// linkOptions attaches optionIDs to the vehicle after checking each one
// belongs to the tenant.
func (tx *txn) linkOptions(tenantID, vehicleID string, optionIDs []string) error {
	if len(optionIDs) == 0 {
		return nil
	}
	if err := tx.step(StepVehicleLinkOptions); err != nil {
		return err
	}
	for _, oid := range optionIDs {
		o, ok := tx.st.options[oid]
		if !ok || o.TenantID != tenantID {
			return domain.Invalid("unknown option %s", oid)
		}
	}
	tx.st.links[vehicleID] = slices.Clone(optionIDs)
	return nil
}

func (st *state) checkTradeIn(tenantID, tradeInID, selfID string) error {
	if tradeInID == "" {
		return nil
	}
	if tradeInID == selfID {
		return domain.Invalid("a vehicle cannot be its own trade-in")
	}
	v, ok := st.vehicles[tradeInID]
	if !ok || v.TenantID != tenantID {
		return domain.Invalid("trade_in_vehicle_id does not reference a vehicle of this dealership")
	}
	return nil
}

func (st *state) withOptions(v vehicle.Vehicle) vehicle.Vehicle {
	v.OptionIDs = slices.Clone(st.links[v.ID])
	if v.OptionIDs == nil {
		v.OptionIDs = []string{}
	}
	return v
}

func vehicleFromInput(in vehicle.Input) vehicle.Vehicle {
	return vehicle.Vehicle{
		Model:            in.Model,
		Plate:            in.Plate,
		Year:             in.Year,
		Color:            in.Color,
		Fuel:             in.Fuel,
		SalePrice:        in.SalePrice,
		CostPrice:        in.CostPrice,
		EntryDate:        in.EntryDate,
		Operation:        in.Operation,
		PreviousOwner:    in.PreviousOwner,
		Seller:           in.Seller,
		Renavam:          in.Renavam,
		Chassis:          in.Chassis,
		Notes:            in.Notes,
		TradeInVehicleID: in.TradeInVehicleID,
	}
}
