package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/DealerForge/internal/adapter/memstore"
	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/event"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/secrets"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testPassword = "password123"
)

type fixture struct {
	store   *memstore.Store
	secrets map[string]string
	vault   *secrets.Vault
	tokens  *TokenService
	gate    *AccessGate
	auth    *AuthService
	tenants *TenantService
	events  *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vals := map[string]string{secrets.KeyJWTSecret: testSecret}
	vault, err := secrets.NewVault(secrets.StaticLoader(vals), secrets.KeyJWTSecret)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Auth{
		TokenTTL:             time.Hour,
		BcryptCost:           4, // low cost for fast tests
		DefaultAdminPassword: "default-pass",
	}
	store := memstore.New()
	tokens := NewTokenService(vault, cfg.TokenTTL)
	gate := NewAccessGate(tokens, store, false)
	authSvc := NewAuthService(store, tokens, cfg)
	return &fixture{
		store:   store,
		secrets: vals,
		vault:   vault,
		tokens:  tokens,
		gate:    gate,
		auth:    authSvc,
		tenants: NewTenantService(store, authSvc, gate, cfg.DefaultAdminPassword),
		events:  &recordingBroadcaster{},
	}
}

func superAdminCtx() context.Context {
	return auth.WithRequestContext(context.Background(), &auth.RequestContext{
		UserID:    "root",
		Username:  "root",
		Role:      user.RoleSuperAdmin,
		Privilege: user.PrivilegeSuperAdmin,
	})
}

func (f *fixture) provision(t *testing.T, name, admin string) *tenant.Summary {
	t.Helper()
	sum, err := f.tenants.Provision(superAdminCtx(), &tenant.CreateRequest{Name: name, AdminUsername: admin, AdminPassword: testPassword})
	if err != nil {
		t.Fatalf("provision %s: %v", name, err)
	}
	return sum
}

func (f *fixture) login(t *testing.T, username string) string {
	t.Helper()
	resp, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: username, Password: testPassword})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return resp.AccessToken
}

// tenantCtx logs in as admin and returns the context the gate produces.
func (f *fixture) tenantCtx(t *testing.T, admin string) context.Context {
	t.Helper()
	rc, err := f.gate.Authenticate(context.Background(), "Bearer "+f.login(t, admin))
	if err != nil {
		t.Fatalf("authenticate %s: %v", admin, err)
	}
	return auth.WithRequestContext(context.Background(), rc)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, ev event.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) types() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]event.Type, len(b.events))
	for i := range b.events {
		out[i] = b.events[i].Type
	}
	return out
}
