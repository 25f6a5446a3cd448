// Package database defines the database store port (interface).
//
// Methods on tenant-owned data take the tenant id from the verified request
// context (auth.TenantID), never from their arguments. Lookups of rows owned
// by another tenant fail with domain.ErrNotFound exactly like missing rows.
// Multi-step writes are atomic: either every step commits or none does.
package database

import (
	"context"

	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/document"
	"github.com/Strob0t/DealerForge/internal/domain/entry"
	"github.com/Strob0t/DealerForge/internal/domain/option"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/settings"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

// Store is the port interface for database operations.
type Store interface {
	TenantStore
	UserStore
	ClientStore
	OptionStore
	VehicleStore
	SaleStore
	EntryStore
	DocumentStore
	SettingsStore
}

// TenantStore covers the control plane. Its methods are not tenant-scoped.
type TenantStore interface {
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	GetTenantStatus(ctx context.Context, id string) (tenant.Status, error)
	ListTenantSummaries(ctx context.Context) ([]tenant.Summary, error)
	GetTenantSummary(ctx context.Context, id string) (*tenant.Summary, error)

	// ProvisionTenant inserts the tenant and its admin user in one
	// transaction. A username collision yields domain.ErrConflict and leaves
	// no tenant behind.
	ProvisionTenant(ctx context.Context, req tenant.CreateRequest, adminHash string) (*tenant.Summary, error)
	SetTenantStatus(ctx context.Context, id string, status tenant.Status) (*tenant.Tenant, error)
	ToggleTenantStatus(ctx context.Context, id string) (*tenant.Tenant, error)

	// UpdateTenant renames the tenant and its admin. When the tenant has no
	// admin and a username is given, an admin is created with defaultHash.
	UpdateTenant(ctx context.Context, id string, req tenant.UpdateRequest, defaultHash string) (*tenant.UpdateResult, error)
	SetTenantAdminPassword(ctx context.Context, tenantID, hash string) error
}

// UserStore covers login accounts. Usernames are matched case-insensitively.
type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
}

// ClientStore is tenant-scoped.
type ClientStore interface {
	ListClients(ctx context.Context, f client.ListFilter) ([]client.Client, error)
	GetClient(ctx context.Context, id string) (*client.Client, error)
	CreateClient(ctx context.Context, in client.Input) (*client.Client, error)
	UpdateClient(ctx context.Context, id string, in client.Input) (*client.Client, error)
	// DeleteClient fails with domain.ErrConflict while a sale references the client.
	DeleteClient(ctx context.Context, id string) error
}

// OptionStore is tenant-scoped.
type OptionStore interface {
	ListOptions(ctx context.Context) ([]option.Option, error)
	CreateOption(ctx context.Context, in option.Input) (*option.Option, error)
	RenameOption(ctx context.Context, id string, in option.Input) (*option.Option, error)
	// DeleteOption removes the option and every vehicle attachment of it.
	DeleteOption(ctx context.Context, id string) error
}

// VehicleStore is tenant-scoped.
type VehicleStore interface {
	ListVehicles(ctx context.Context, f vehicle.ListFilter) ([]vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*vehicle.Vehicle, error)
	// CreateVehicle inserts the vehicle and its option attachments.
	CreateVehicle(ctx context.Context, in vehicle.Input) (*vehicle.Vehicle, error)
	// UpdateVehicle replaces the vehicle fields and its full option set.
	UpdateVehicle(ctx context.Context, id string, in vehicle.Input) (*vehicle.Vehicle, error)
	// DeleteVehicle removes the vehicle with its attachments, entries,
	// documents and sales, and clears trade-in references to it.
	DeleteVehicle(ctx context.Context, id string) error
}

// SaleStore is tenant-scoped.
type SaleStore interface {
	ListSales(ctx context.Context, f sale.ListFilter) ([]sale.Sale, error)
	GetSale(ctx context.Context, id string) (*sale.Sale, error)
	// CreateSale inserts the sale and moves the vehicle from in_stock to
	// sold. A vehicle that is not in stock yields domain.ErrConflict.
	CreateSale(ctx context.Context, req sale.CreateRequest) (*sale.Sale, error)
	// CancelSale deletes the sale and moves the vehicle back to in_stock.
	CancelSale(ctx context.Context, id string) (*sale.Sale, error)
}

// EntryStore is tenant-scoped.
type EntryStore interface {
	ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, error)
	GetEntry(ctx context.Context, id string) (*entry.Entry, error)
	CreateEntry(ctx context.Context, in entry.Input) (*entry.Entry, error)
	UpdateEntry(ctx context.Context, id string, in entry.Input) (*entry.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// DocumentStore is tenant-scoped. Listings omit payloads.
type DocumentStore interface {
	ListDocuments(ctx context.Context, vehicleID string) ([]document.Document, error)
	GetDocument(ctx context.Context, id string) (*document.Document, error)
	CreateDocument(ctx context.Context, req document.CreateRequest) (*document.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// SettingsStore is tenant-scoped.
type SettingsStore interface {
	// GetSettings returns an empty record when none was saved yet.
	GetSettings(ctx context.Context) (*settings.Dealership, error)
	UpsertSettings(ctx context.Context, req settings.UpdateRequest) (*settings.Dealership, error)
}
