package service

import (
	"context"
	"log/slog"

	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/port/broadcast"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// SaleService records and cancels sales.
type SaleService struct {
	store database.SaleStore
	publisher
}

// NewSaleService creates a SaleService. bc may be nil.
func NewSaleService(store database.SaleStore, bc broadcast.Broadcaster) *SaleService {
	return &SaleService{store: store, publisher: publisher{bc: bc}}
}

func (s *SaleService) List(ctx context.Context, f sale.ListFilter) ([]sale.Sale, error) {
	return s.store.ListSales(ctx, f)
}

func (s *SaleService) Get(ctx context.Context, id string) (*sale.Sale, error) {
	return s.store.GetSale(ctx, id)
}

// Create records a sale and marks the vehicle sold in one transaction.
func (s *SaleService) Create(ctx context.Context, req *sale.CreateRequest) (*sale.Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	sl, err := s.store.CreateSale(ctx, *req)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "sale recorded", "id", sl.ID, "vehicle_id", sl.VehicleID)
	s.publish(ctx, event.TypeSaleCreated, sl.TenantID, sl.ID, sl)
	return sl, nil
}

// Cancel deletes a sale and returns its vehicle to stock.
func (s *SaleService) Cancel(ctx context.Context, id string) (*sale.Sale, error) {
	sl, err := s.store.CancelSale(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "sale cancelled", "id", sl.ID, "vehicle_id", sl.VehicleID)
	s.publish(ctx, event.TypeSaleCancelled, sl.TenantID, sl.ID, sl)
	return sl, nil
}
