package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/DealerForge/internal/config"
	"github.com/Strob0t/DealerForge/internal/domain"
	"github.com/Strob0t/DealerForge/internal/domain/auth"
	"github.com/Strob0t/DealerForge/internal/domain/tenant"
	"github.com/Strob0t/DealerForge/internal/domain/user"
	"github.com/Strob0t/DealerForge/internal/resilience"
)

func TestLogin(t *testing.T) {
	f := newFixture(t)
	sum := f.provision(t, "Loja Centro", "Centro")

	resp, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: "  CENTRO ", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("expected access token")
	}
	if resp.User.TenantID != sum.ID || resp.User.Username != "centro" {
		t.Errorf("unexpected user %+v", resp.User)
	}
	if resp.Privilege != user.PrivilegeTenantAdmin {
		t.Errorf("expected tenant_admin, got %s", resp.Privilege)
	}
}

func TestLoginRejected(t *testing.T) {
	f := newFixture(t)
	sum := f.provision(t, "Loja Oeste", "oeste")

	tests := []struct {
		name string
		req  user.LoginRequest
		want error
	}{
		{"missing password", user.LoginRequest{Username: "oeste"}, domain.ErrValidation},
		{"wrong password", user.LoginRequest{Username: "oeste", Password: "nope-nope"}, domain.ErrInvalidCredentials},
		{"unknown user", user.LoginRequest{Username: "nobody", Password: testPassword}, domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.auth.Login(context.Background(), &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := f.tenants.SetStatus(superAdminCtx(), sum.ID, tenant.StatusBlocked); err != nil {
		t.Fatal(err)
	}
	_, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: "oeste", Password: testPassword})
	if !errors.Is(err, domain.ErrTenantSuspended) {
		t.Errorf("blocked tenant login: expected ErrTenantSuspended, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "Loja Leste", "leste")
	ctx := f.tenantCtx(t, "leste")

	err := f.auth.ChangePassword(ctx, &user.ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "new-password"})
	if msg, _ := domain.PublicMessage(err); !errors.Is(err, domain.ErrValidation) || msg != "current password is incorrect" {
		t.Fatalf("expected current password validation error, got %v", err)
	}

	if err := f.auth.ChangePassword(ctx, &user.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: "new-password"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: "leste", Password: "new-password"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: "leste", Password: testPassword}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("old password must stop working, got %v", err)
	}
}

func TestUnknownUserPaysConfiguredHashCost(t *testing.T) {
	f := newFixture(t)
	cfg := &config.Auth{TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost + 2}
	svc := NewAuthService(f.store, f.tokens, cfg)

	userHash, err := svc.HashPassword(context.Background(), testPassword)
	if err != nil {
		t.Fatal(err)
	}
	realCost, err := bcrypt.Cost([]byte(userHash))
	if err != nil {
		t.Fatal(err)
	}
	dummyCost, err := bcrypt.Cost(svc.dummyHash())
	if err != nil {
		t.Fatal(err)
	}
	if dummyCost != realCost || dummyCost != cfg.BcryptCost {
		t.Fatalf("dummy hash cost %d, user hash cost %d, configured %d", dummyCost, realCost, cfg.BcryptCost)
	}

	_, err = svc.Login(context.Background(), &user.LoginRequest{Username: "nobody", Password: testPassword})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestMeRequiresContext(t *testing.T) {
	f := newFixture(t)
	if _, err := f.auth.Me(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	f.provision(t, "Loja Me", "me")
	u, err := f.auth.Me(f.tenantCtx(t, "me"))
	if err != nil || u.Username != "me" {
		t.Errorf("Me = %v, %v", u, err)
	}
}

func TestBootstrapSuperAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.auth.BootstrapSuperAdmin(ctx, "Root", "super-secret")
	if err != nil || !created {
		t.Fatalf("first bootstrap: created=%v err=%v", created, err)
	}
	created, err = f.auth.BootstrapSuperAdmin(ctx, "root", "another-secret")
	if err != nil || created {
		t.Fatalf("second bootstrap must be a no-op: created=%v err=%v", created, err)
	}

	resp, err := f.auth.Login(ctx, &user.LoginRequest{Username: "root", Password: "super-secret"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Privilege != user.PrivilegeSuperAdmin || resp.User.TenantID != "" {
		t.Errorf("unexpected super-admin login %+v", resp)
	}

	rc, err := f.gate.Authenticate(ctx, "Bearer "+resp.AccessToken)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.tenants.List(auth.WithRequestContext(ctx, rc)); err != nil {
		t.Errorf("super-admin should reach the control plane: %v", err)
	}
}

func TestLoginWaitsForHashPool(t *testing.T) {
	f := newFixture(t)
	f.provision(t, "Loja Sul", "sul")

	pool := resilience.NewPool(1)
	f.auth.SetHashPool(pool)

	// Occupy the only slot.
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pool.Run(context.Background(), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.auth.Login(ctx, &user.LoginRequest{Username: "sul", Password: testPassword})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(release)
	if _, err := f.auth.Login(context.Background(), &user.LoginRequest{Username: "sul", Password: testPassword}); err != nil {
		t.Fatalf("login after release: %v", err)
	}
}
