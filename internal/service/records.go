package service

import (
	"context"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/document"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// EntryService manages expense and revenue entries.
type EntryService struct {
	store database.EntryStore
}

// NewEntryService creates an EntryService.
func NewEntryService(store database.EntryStore) *EntryService {
	return &EntryService{store: store}
}

func (s *EntryService) List(ctx context.Context, f entry.ListFilter) ([]entry.Entry, error) {
	if err := f.Validate(); err != nil {
		return nil, invalid(err)
	}
	if f.Kind != "" && f.Kind != entry.KindExpense && f.Kind != entry.KindRevenue {
		return nil, domain.Invalid("kind must be expense or revenue")
	}
	return s.store.ListEntries(ctx, f)
}

func (s *EntryService) Get(ctx context.Context, id string) (*entry.Entry, error) {
	return s.store.GetEntry(ctx, id)
}

func (s *EntryService) Create(ctx context.Context, in *entry.Input) (*entry.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.CreateEntry(ctx, *in)
}

func (s *EntryService) Update(ctx context.Context, id string, in *entry.Input) (*entry.Entry, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.UpdateEntry(ctx, id, *in)
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEntry(ctx, id)
}

// DocumentService stores documents attached to vehicles.
type DocumentService struct {
	store database.DocumentStore
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(store database.DocumentStore) *DocumentService {
	return &DocumentService{store: store}
}

// ListByVehicle returns document metadata without payloads.
func (s *DocumentService) ListByVehicle(ctx context.Context, vehicleID string) ([]document.Document, error) {
	return s.store.ListDocuments(ctx, vehicleID)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*document.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *DocumentService) Create(ctx context.Context, req *document.CreateRequest) (*document.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.CreateDocument(ctx, *req)
}

func (s *DocumentService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}

// SettingsService reads and writes the dealership profile.
type SettingsService struct {
	store database.SettingsStore
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(store database.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the profile, or an empty one if none was saved yet.
func (s *SettingsService) Get(ctx context.Context) (*settings.Dealership, error) {
	return s.store.GetSettings(ctx)
}

func (s *SettingsService) Update(ctx context.Context, req *settings.UpdateRequest) (*settings.Dealership, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.UpsertSettings(ctx, *req)
}
