package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

var invalidStatusFilter = domain.Invalid("status must be in_stock, reserved or sold")

// VehicleStore is the storage the vehicle use cases need.
type VehicleStore interface {
	database.VehicleStore
	ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, error)
}

// VehicleService manages the stock of the caller's dealership.
type VehicleService struct {
	store VehicleStore
	publisher
}

// NewVehicleService creates a VehicleService. bc may be nil.
func NewVehicleService(store VehicleStore, bc broadcast.Broadcaster) *VehicleService {
	return &VehicleService{store: store, publisher: publisher{bc: bc}}
}

func (s *VehicleService) List(ctx context.Context, f vehicle.ListFilter) ([]vehicle.Vehicle, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, invalidStatusFilter
	}
	return s.store.ListVehicles(ctx, f)
}

// Get returns a vehicle with its option ids.
func (s *VehicleService) Get(ctx context.Context, id string) (*vehicle.Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

// Create inserts a vehicle and attaches its options atomically.
func (s *VehicleService) Create(ctx context.Context, in *vehicle.Input) (*vehicle.Vehicle, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	v, err := s.store.CreateVehicle(ctx, *in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.TypeVehicleCreated, v.TenantID, v.ID, v)
	return v, nil
}

// Update replaces the vehicle fields and its whole option set.
func (s *VehicleService) Update(ctx context.Context, id string, in *vehicle.Input) (*vehicle.Vehicle, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	v, err := s.store.UpdateVehicle(ctx, id, *in)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.TypeVehicleUpdated, v.TenantID, v.ID, v)
	return v, nil
}

// Delete removes a vehicle and everything that hangs off it.
func (s *VehicleService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteVehicle(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "vehicle deleted", "id", id)
	s.publish(ctx, event.TypeVehicleDeleted, auth.TenantID(ctx), id, nil)
	return nil
}

// Summary returns the financial summary of one vehicle.
func (s *VehicleService) Summary(ctx context.Context, id string) (*vehicle.Summary, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListEntries(ctx, entry.ListFilter{VehicleID: id})
	if err != nil {
		return nil, err
	}
	expenses, revenue := entry.Totals(entries)
	sum := vehicle.NewSummary(v, expenses, revenue)
	return &sum, nil
}
