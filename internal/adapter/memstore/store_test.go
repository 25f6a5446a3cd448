package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/client"
	"github.com/Strob0t/DealerForge/internal/domain/option"
	"github.com/Strob0t/DealerForge/internal/domain/sale"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/domain/vehicle"
)

var errBoom = errors.New("boom")

func provision(t *testing.T, s *Store, name, admin string) context.Context {
	t.Helper()
	sum, err := s.ProvisionTenant(context.Background(), tenant.CreateRequest{Name: name, AdminUsername: admin, AdminPassword: "password1"}, "hash")
	if err != nil {
		t.Fatalf("provision %s: %v", name, err)
	}
	return auth.WithRequestContext(context.Background(), &auth.RequestContext{TenantID: sum.ID, Username: admin})
}

func TestScopedMethodsRequireTenant(t *testing.T) {
	s := New()
	_, err := s.ListVehicles(context.Background(), vehicle.ListFilter{})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden without tenant, got %v", err)
	}
}

func TestProvisionTenant_DuplicateUsernameLeavesNoTenant(t *testing.T) {
	s := New()
	provision(t, s, "Alpha", "alpha")

	_, err := s.ProvisionTenant(context.Background(), tenant.CreateRequest{Name: "Beta", AdminUsername: "ALPHA"}, "hash")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	list, _ := s.ListTenantSummaries(context.Background())
	if len(list) != 1 {
		t.Fatalf("expected 1 tenant, got %d", len(list))
	}
}

func TestCreateVehicle_FailedLinkRollsBack(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	opt, err := s.CreateOption(ctx, option.Input{Name: "ABS"})
	if err != nil {
		t.Fatal(err)
	}

	s.FailAt(StepVehicleLinkOptions, errBoom)
	_, err = s.CreateVehicle(ctx, vehicle.Input{Model: "Gol", OptionIDs: []string{opt.ID}})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	s.ClearFaults()

	list, _ := s.ListVehicles(ctx, vehicle.ListFilter{})
	if len(list) != 0 {
		t.Fatalf("vehicle should not survive a failed link step, got %d", len(list))
	}
}

func TestCreateVehicle_UnknownOptionIsValidation(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	other := provision(t, s, "Beta", "beta")
	foreign, _ := s.CreateOption(other, option.Input{Name: "ABS"})

	_, err := s.CreateVehicle(ctx, vehicle.Input{Model: "Gol", OptionIDs: []string{foreign.ID}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for foreign option, got %v", err)
	}
}

func TestCreateSale_MarkSoldFailureKeepsStock(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	v, _ := s.CreateVehicle(ctx, vehicle.Input{Model: "Gol"})
	c, _ := s.CreateClient(ctx, client.Input{Name: "Ana", Kind: client.KindIndividual})

	s.FailAt(StepSaleMarkSold, errBoom)
	_, err := s.CreateSale(ctx, sale.CreateRequest{VehicleID: v.ID, ClientID: c.ID, SaleValue: 100, OperationKind: sale.OperationSale})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	s.ClearFaults()

	sales, _ := s.ListSales(ctx, sale.ListFilter{})
	if len(sales) != 0 {
		t.Fatalf("sale should be rolled back, got %d", len(sales))
	}
	got, _ := s.GetVehicle(ctx, v.ID)
	if got.Status != vehicle.StatusInStock {
		t.Fatalf("vehicle status = %q, want in_stock", got.Status)
	}
}

func TestCancelSale_VehicleNotSoldConflicts(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	v, _ := s.CreateVehicle(ctx, vehicle.Input{Model: "Gol"})
	c, _ := s.CreateClient(ctx, client.Input{Name: "Ana", Kind: client.KindIndividual})
	sl, err := s.CreateSale(ctx, sale.CreateRequest{VehicleID: v.ID, ClientID: c.ID, SaleValue: 100, OperationKind: sale.OperationSale})
	if err != nil {
		t.Fatal(err)
	}

	// Status drifted outside the sale flow.
	drifted := s.state.vehicles[v.ID]
	drifted.Status = vehicle.StatusReserved
	s.state.vehicles[v.ID] = drifted

	if _, err := s.CancelSale(ctx, sl.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.GetSale(ctx, sl.ID); err != nil {
		t.Fatalf("sale must survive the failed cancel: %v", err)
	}
	got, _ := s.GetVehicle(ctx, v.ID)
	if got.Status != vehicle.StatusReserved {
		t.Fatalf("vehicle status = %q, want reserved", got.Status)
	}
}

func TestDeleteClient_WithSaleConflicts(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	v, _ := s.CreateVehicle(ctx, vehicle.Input{Model: "Gol"})
	c, _ := s.CreateClient(ctx, client.Input{Name: "Ana", Kind: client.KindIndividual})
	if _, err := s.CreateSale(ctx, sale.CreateRequest{VehicleID: v.ID, ClientID: c.ID, SaleValue: 100, OperationKind: sale.OperationSale}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteClient(ctx, c.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteOption_RemovesLinks(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	a, _ := s.CreateOption(ctx, option.Input{Name: "ABS"})
	b, _ := s.CreateOption(ctx, option.Input{Name: "Airbag"})
	v, err := s.CreateVehicle(ctx, vehicle.Input{Model: "Gol", OptionIDs: []string{a.ID, b.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteOption(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetVehicle(ctx, v.ID)
	if len(got.OptionIDs) != 1 || got.OptionIDs[0] != b.ID {
		t.Fatalf("option ids = %v, want [%s]", got.OptionIDs, b.ID)
	}
}

func TestCreateOption_DuplicateNamePerTenant(t *testing.T) {
	s := New()
	ctx := provision(t, s, "Alpha", "alpha")
	other := provision(t, s, "Beta", "beta")
	if _, err := s.CreateOption(ctx, option.Input{Name: "ABS"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateOption(ctx, option.Input{Name: "abs"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateOption(other, option.Input{Name: "ABS"}); err != nil {
		t.Fatalf("other tenant may reuse the name: %v", err)
	}
}

func TestUpdateTenant_CreatesMissingAdmin(t *testing.T) {
	s := New()
	ctx := context.Background()
	sum, _ := s.ProvisionTenant(ctx, tenant.CreateRequest{Name: "Alpha", AdminUsername: "alpha"}, "hash")

	// Drop the admin to simulate a tenant created before admins were mandatory.
	s.state.users = map[string]user.User{}

	res, err := s.UpdateTenant(ctx, sum.ID, tenant.UpdateRequest{AdminUsername: "NewAdmin"}, "default-hash")
	if err != nil {
		t.Fatal(err)
	}
	if !res.DefaultCredentialApplied {
		t.Fatal("expected default credential to be applied")
	}
	u, err := s.GetUserByUsername(ctx, "newadmin")
	if err != nil {
		t.Fatal(err)
	}
	if u.PasswordHash != "default-hash" || u.TenantID != sum.ID {
		t.Fatalf("unexpected admin: %+v", u)
	}
}
