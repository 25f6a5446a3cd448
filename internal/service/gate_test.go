package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
)

type statusReaderFunc func(ctx context.Context, id string) (tenant.Status, error)

func (f statusReaderFunc) GetTenantStatus(ctx context.Context, id string) (tenant.Status, error) {
	return f(ctx, id)
}

// mapStatusCache is a minimal ticketed cache for exercising the gate.
type mapStatusCache struct {
	mu      sync.Mutex
	entries map[string]tenant.Status
	gen     map[string]uint64
}

func newMapStatusCache() *mapStatusCache {
	return &mapStatusCache{entries: map[string]tenant.Status{}, gen: map[string]uint64{}}
}

func (c *mapStatusCache) Lookup(id string) (tenant.Status, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entries[id]
	return st, ok, c.gen[id]
}

func (c *mapStatusCache) Fill(id string, st tenant.Status, ticket uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[id] == ticket {
		c.entries[id] = st
	}
}

func (c *mapStatusCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[id]++
	delete(c.entries, id)
}

func TestAuthenticateHeader(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", domain.ErrUnauthenticated},
		{"basic scheme", "Basic dXNlcjpwYXNz", domain.ErrUnauthenticated},
		{"bearer without token", "Bearer ", domain.ErrUnauthenticated},
		{"lowercase scheme", "bearer abc", domain.ErrUnauthenticated},
		{"bad token", "Bearer abc.def.ghi", domain.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.gate.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, tt.want) {
				t.Errorf("Authenticate(%q) = %v, want %v", tt.header, err, tt.want)
			}
		})
	}
}

func TestAuthenticateTenantAdmin(t *testing.T) {
	f := newFixture(t)
	sum := f.provision(t, "Loja Norte", "norte")

	rc, err := f.gate.Authenticate(context.Background(), "Bearer "+f.login(t, "norte"))
	if err != nil {
		t.Fatal(err)
	}
	if rc.TenantID != sum.ID || rc.Username != "norte" || rc.Privilege != user.PrivilegeTenantAdmin {
		t.Errorf("unexpected request context %+v", rc)
	}
}

func liveSuspension(t *testing.T, f *fixture) {
	t.Helper()
	sum := f.provision(t, "Loja Sul", "sul")
	header := "Bearer " + f.login(t, "sul")

	if _, err := f.gate.Authenticate(context.Background(), header); err != nil {
		t.Fatalf("active tenant: %v", err)
	}
	if _, err := f.tenants.SetStatus(superAdminCtx(), sum.ID, tenant.StatusBlocked); err != nil {
		t.Fatal(err)
	}
	if _, err := f.gate.Authenticate(context.Background(), header); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Fatalf("token issued before the block must be refused, got %v", err)
	}
	if _, err := f.tenants.ToggleStatus(superAdminCtx(), sum.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.gate.Authenticate(context.Background(), header); err != nil {
		t.Fatalf("reactivated tenant: %v", err)
	}
}

func TestLiveSuspension(t *testing.T) {
	liveSuspension(t, newFixture(t))
}

func TestLiveSuspensionWithStatusCache(t *testing.T) {
	f := newFixture(t)
	f.gate.SetStatusCache(newMapStatusCache())
	liveSuspension(t, f)
}

func TestAuthenticateMissingTenant(t *testing.T) {
	f := newFixture(t)
	raw, _, err := f.tokens.Issue(&user.User{ID: "u9", TenantID: "gone", Username: "ghost", Role: user.RoleAdmin})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.gate.Authenticate(context.Background(), "Bearer "+raw); !errors.Is(err, domain.ErrTenantSuspended) {
		t.Fatalf("expected ErrTenantSuspended, got %v", err)
	}
}

func TestAuthenticateStatusLookupFailsClosed(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection refused")
	gate := NewAccessGate(f.tokens, statusReaderFunc(func(context.Context, string) (tenant.Status, error) {
		return "", boom
	}), false)
	raw, _, _ := f.tokens.Issue(testUser)

	rc, err := gate.Authenticate(context.Background(), "Bearer "+raw)
	if rc != nil || !errors.Is(err, boom) {
		t.Fatalf("expected storage error and no context, got %v, %v", rc, err)
	}
	for _, sentinel := range []error{domain.ErrUnauthenticated, domain.ErrInvalidToken, domain.ErrTenantSuspended} {
		if errors.Is(err, sentinel) {
			t.Errorf("storage failure must not look like %v", sentinel)
		}
	}
}

func TestAuthenticateSuperAdminSkipsTenantLookup(t *testing.T) {
	f := newFixture(t)
	gate := NewAccessGate(f.tokens, statusReaderFunc(func(context.Context, string) (tenant.Status, error) {
		t.Error("tenant-less token must not trigger a status lookup")
		return "", nil
	}), true)

	raw, _, _ := f.tokens.Issue(&user.User{ID: "r1", Username: "admin"})
	rc, err := gate.Authenticate(context.Background(), "Bearer "+raw)
	if err != nil {
		t.Fatal(err)
	}
	if !rc.IsSuperAdmin() {
		t.Errorf("legacy admin should resolve to super-admin, got %s", rc.Privilege)
	}
}

func TestTenantStatusCacheHit(t *testing.T) {
	f := newFixture(t)
	var reads atomic.Int32
	gate := NewAccessGate(f.tokens, statusReaderFunc(func(context.Context, string) (tenant.Status, error) {
		reads.Add(1)
		return tenant.StatusActive, nil
	}), false)
	c := newMapStatusCache()
	gate.SetStatusCache(c)

	for range 3 {
		if _, err := gate.TenantStatus(context.Background(), "t1"); err != nil {
			t.Fatal(err)
		}
	}
	if got := reads.Load(); got != 1 {
		t.Errorf("expected 1 store read, got %d", got)
	}

	gate.InvalidateTenant("t1")
	if _, err := gate.TenantStatus(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if got := reads.Load(); got != 2 {
		t.Errorf("expected a store read after invalidation, got %d reads", got)
	}
}

func TestTenantStatusStaleFillDiscarded(t *testing.T) {
	f := newFixture(t)
	c := newMapStatusCache()
	gate := NewAccessGate(f.tokens, statusReaderFunc(func(context.Context, string) (tenant.Status, error) {
		// The tenant is blocked while this read is in flight.
		c.Invalidate("t1")
		return tenant.StatusActive, nil
	}), false)
	gate.SetStatusCache(c)

	if _, err := gate.TenantStatus(context.Background(), "t1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Lookup("t1"); ok {
		t.Error("a status read before an invalidation must not be cached")
	}
}
