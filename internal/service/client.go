package service

import (
	"context"

	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/option"
	"github.com/Strob0t/DealerForge/internal/port/database"
)

// ClientService manages the customers of the caller's dealership.
type ClientService struct {
	store database.ClientStore
}

// NewClientService creates a ClientService.
func NewClientService(store database.ClientStore) *ClientService {
	return &ClientService{store: store}
}

func (s *ClientService) List(ctx context.Context, f client.ListFilter) ([]client.Client, error) {
	return s.store.ListClients(ctx, f)
}

func (s *ClientService) Get(ctx context.Context, id string) (*client.Client, error) {
	return s.store.GetClient(ctx, id)
}

func (s *ClientService) Create(ctx context.Context, in *client.Input) (*client.Client, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.CreateClient(ctx, *in)
}

func (s *ClientService) Update(ctx context.Context, id string, in *client.Input) (*client.Client, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.UpdateClient(ctx, id, *in)
}

// Delete removes a client. Clients referenced by a sale are kept.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteClient(ctx, id)
}

// OptionService manages the per-dealership catalog of vehicle options.
type OptionService struct {
	store database.OptionStore
}

// NewOptionService creates an OptionService.
func NewOptionService(store database.OptionStore) *OptionService {
	return &OptionService{store: store}
}

func (s *OptionService) List(ctx context.Context) ([]option.Option, error) {
	return s.store.ListOptions(ctx)
}

func (s *OptionService) Create(ctx context.Context, in *option.Input) (*option.Option, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.CreateOption(ctx, *in)
}

func (s *OptionService) Rename(ctx context.Context, id string, in *option.Input) (*option.Option, error) {
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.RenameOption(ctx, id, *in)
}

func (s *OptionService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteOption(ctx, id)
}
